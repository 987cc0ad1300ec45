// Package statusapi exposes a read-only HTTP introspection surface over a
// running *engine.Engine: health, the current dependency-ordered plan for a
// given command/environment, and the full task registry. It is grounded on
// the teacher go.mod's gin-gonic/gin + gin-contrib/cors pairing — present in
// cklxx-elephant.ai's dependency set for its web delivery binary — adapted
// here into a small, single-purpose status server rather than a chat API.
package statusapi

import (
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/taskflowhq/taskflow/internal/observability/logging"
	"github.com/taskflowhq/taskflow/internal/taskflow/engine"
	"github.com/taskflowhq/taskflow/internal/taskflow/identifier"
)

// Server wraps a gin.Engine configured with the three read-only routes over
// a taskflow Engine.
type Server struct {
	router *gin.Engine
	tasks  *engine.Engine
	logger logging.Logger
}

// New builds a Server. logger may be nil. The underlying gin.Engine runs in
// gin.ReleaseMode unless GIN_MODE is already set by the host process, so a
// library consumer doesn't get gin's debug route-dump on every start.
func New(tasks *engine.Engine, logger logging.Logger) *Server {
	logger = logging.OrNop(logger)

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type"},
	}))
	router.Use(requestIDMiddleware)

	s := &Server{router: router, tasks: tasks, logger: logger}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler to pass to an http.Server, so the CLI
// controls listener lifecycle and graceful shutdown itself.
func (s *Server) Handler() http.Handler { return s.router }

// requestIDHeader is the header a caller can set to propagate their own
// correlation id; otherwise one is minted per request so log lines across
// a plan/tasks call can be tied together.
const requestIDHeader = "X-Request-Id"

func requestIDMiddleware(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(requestIDHeader, id)
	c.Set(requestIDHeader, id)
	c.Next()
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealthz)
	s.router.GET("/v1/plan", s.handlePlan)
	s.router.GET("/v1/tasks", s.handleTasks)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handlePlan reports the dependency-ordered, scope-filtered plan for
// ?command=&environment=, both required.
func (s *Server) handlePlan(c *gin.Context) {
	command := c.Query("command")
	environment := c.Query("environment")
	if command == "" || environment == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command and environment query parameters are required"})
		return
	}

	order, err := s.tasks.CalculateCurrentTaskOrder(identifier.BuildCommandIdentifier(command, environment))
	if err != nil {
		s.logger.Error("statusapi: plan computation failed for command %q environment %q: %v", command, environment, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"command":     command,
		"environment": environment,
		"plan":        order,
	})
}

// handleTasks lists every registered task's id, kind and version.
func (s *Server) handleTasks(c *gin.Context) {
	ids := s.tasks.AllTaskIDs()
	out := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		t, err := s.tasks.GetTaskByID(id)
		if err != nil {
			continue
		}
		out = append(out, gin.H{
			"id":      t.ID(),
			"kind":    t.Kind(),
			"version": t.Version(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"tasks": out})
}
