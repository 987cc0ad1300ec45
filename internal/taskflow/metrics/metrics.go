// Package metrics wires the dispatcher's lifecycle stages into
// prometheus/client_golang, the way the teacher's internal/infra/observability
// package wraps LLM/tool-call telemetry behind a small Collector with an
// Enabled switch rather than importing prometheus directly at every call
// site. Collector.Hook returns a *hook.Hook a host registers against the
// Engine the same way it registers any other observer.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/taskflowhq/taskflow/internal/taskflow/hook"
	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
	"github.com/taskflowhq/taskflow/internal/taskflow/lifecycle"
)

// Collector owns the Prometheus series a registered Hook reports into.
// A nil/disabled Collector's Hook is still safe to register — its Fn is a
// no-op — matching the teacher's MetricsCollector{Enabled: false} contract
// of never panicking regardless of configuration.
type Collector struct {
	enabled      bool
	stageTotal   *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
}

// Config mirrors the teacher's observability.MetricsConfig shape: a plain
// Enabled switch plus the registerer to publish into.
type Config struct {
	Enabled    bool
	Registerer prometheus.Registerer
}

// New builds a Collector. When cfg.Enabled is false, the returned Collector
// still produces a working Hook, but that Hook's Fn never touches the
// registerer — this lets a CLI unconditionally construct a Collector and
// register its Hook, deciding observability at config time rather than
// littering call sites with nil checks.
func New(cfg Config) *Collector {
	if !cfg.Enabled {
		return &Collector{enabled: false}
	}

	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	return &Collector{
		enabled: true,
		stageTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taskflow_lifecycle_stage_total",
			Help: "Count of lifecycle stage transitions observed by the dispatcher.",
		}, []string{"stage", "command"}),
		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskflow_task_duration_seconds",
			Help:    "Wall-clock seconds between a task's processing start and its post-done stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
	}
}

// stageStartKey is where the hook parks a task's TaskPreProcessingStart
// timestamp so the matching TaskProcessingPostDone observation can compute
// an elapsed duration. It keys a map private to the Hook's function rather
// than the KeyValueStore, since start-time bookkeeping is the hook's private concern, not
// state a TaskProcessor or another hook should see.
type stageStartKey struct {
	taskID, command, environment string
}

// Hook returns a *hook.Hook registered for every stage in
// lifecycle.AllDefaultStages() against the given commands and environments.
// A metrics hook has no opinion on scope the way a domain hook does, so the
// caller supplies the exact (command, environment) pairs it wants observed —
// typically processor.DefaultSupportedCommands crossed with the single
// environment the running CLI invocation targets.
func (c *Collector) Hook(commands, environments []string) *hook.Hook {
	starts := make(map[stageStartKey]time.Time)

	fn := func(_ context.Context, args hook.Args) (kvstore.Store, error) {
		if c == nil || !c.enabled {
			return args.Store, nil
		}

		stageLabel := stageName(args.Stage)
		c.stageTotal.WithLabelValues(stageLabel, args.Command).Inc()

		var taskID string
		if args.Task != nil {
			taskID = args.Task.ID()
		}
		key := stageStartKey{taskID: taskID, command: args.Command, environment: args.Context}

		switch args.Stage {
		case lifecycle.TaskPreProcessingStart:
			starts[key] = time.Now()
		case lifecycle.TaskProcessingPostDone:
			if started, ok := starts[key]; ok {
				c.taskDuration.WithLabelValues(args.Command).Observe(time.Since(started).Seconds())
				delete(starts, key)
			}
		}

		return args.Store, nil
	}

	return hook.New("taskflow-metrics", commands, environments, lifecycle.AllDefaultStages(), fn, nil)
}

func stageName(stage lifecycle.Stage) string {
	switch stage {
	case lifecycle.TaskPreRegister:
		return "TASK_PRE_REGISTER"
	case lifecycle.TaskPreRegisterError:
		return "TASK_PRE_REGISTER_ERROR"
	case lifecycle.TaskRegistered:
		return "TASK_REGISTERED"
	case lifecycle.TaskRegisteredError:
		return "TASK_REGISTERED_ERROR"
	case lifecycle.TaskPreProcessingStart:
		return "TASK_PRE_PROCESSING_START"
	case lifecycle.TaskPreProcessingStartError:
		return "TASK_PRE_PROCESSING_START_ERROR"
	case lifecycle.TaskPreProcessingCompleted:
		return "TASK_PRE_PROCESSING_COMPLETED"
	case lifecycle.TaskPreProcessingCompletedError:
		return "TASK_PRE_PROCESSING_COMPLETED_ERROR"
	case lifecycle.TaskProcessingPreStart:
		return "TASK_PROCESSING_PRE_START"
	case lifecycle.TaskProcessingPreStartError:
		return "TASK_PROCESSING_PRE_START_ERROR"
	case lifecycle.TaskProcessingPostDone:
		return "TASK_PROCESSING_POST_DONE"
	case lifecycle.TaskProcessingPostDoneError:
		return "TASK_PROCESSING_POST_DONE_ERROR"
	default:
		return "UNKNOWN"
	}
}
