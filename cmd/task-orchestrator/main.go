// task-orchestrator is the reference CLI binary for the taskflow engine: it
// loads manifests from a directory, builds an Engine wired with the demo
// shell/noop TaskProcessors plus a metrics hook and an audit-log hook, and
// drives a single command/environment run through ProcessContext. Its
// command tree (apply|get|delete|describe, global --manifests/--state-file/
// --log-level/--serve flags, viper-backed config precedence) is grounded on
// the teacher's cmd/cobra_cli.go NewRootCommand.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskflowhq/taskflow/internal/config"
	"github.com/taskflowhq/taskflow/internal/observability/logging"
	"github.com/taskflowhq/taskflow/internal/taskflow/engine"
	"github.com/taskflowhq/taskflow/internal/taskflow/hook"
	"github.com/taskflowhq/taskflow/internal/taskflow/identifier"
	"github.com/taskflowhq/taskflow/internal/taskflow/ingest"
	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
	"github.com/taskflowhq/taskflow/internal/taskflow/lifecycle"
	"github.com/taskflowhq/taskflow/internal/taskflow/metrics"
	"github.com/taskflowhq/taskflow/internal/taskflow/processor"
	"github.com/taskflowhq/taskflow/internal/taskflow/processor/demo"
	"github.com/taskflowhq/taskflow/internal/taskflow/state/filestate"
	"github.com/taskflowhq/taskflow/internal/taskflow/statusapi"
	"github.com/taskflowhq/taskflow/internal/taskflow/task"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	manifests   string
	environment string
	stateFile   string
	logLevel    string
	serve       string
	metrics     bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "task-orchestrator",
		Short: "Declarative task orchestration over a directory of manifests",
	}
	root.PersistentFlags().StringVar(&flags.manifests, "manifests", "./manifests", "directory of *.yaml/*.yml manifests to load")
	root.PersistentFlags().StringVar(&flags.environment, "environment", "default", "environment to run the command against")
	root.PersistentFlags().StringVar(&flags.stateFile, "state-file", "./task-orchestrator.state.json", "JSON file backing StatePersistence")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "debug|info|warn|error")
	root.PersistentFlags().StringVar(&flags.serve, "serve", "", "address to additionally serve the read-only status API on, e.g. :8080")
	root.PersistentFlags().BoolVar(&flags.metrics, "metrics", false, "enable the Prometheus lifecycle-stage hook")

	for _, command := range processor.DefaultSupportedCommands {
		root.AddCommand(newRunCommand(command, flags))
	}

	return root
}

func newRunCommand(command string, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: fmt.Sprintf("Run the %q command over every loaded task", command),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, command, flags)
		},
	}
}

// run resolves the effective settings (config file/defaults via viper,
// overridden by any flag the user actually set on this invocation) and
// drives one command/environment pass through the engine.
func run(cmd *cobra.Command, command string, flags *globalFlags) error {
	cfgManager, err := config.NewManager()
	if err != nil {
		return err
	}
	if err := cfgManager.BindFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	settings := cfgManager.Settings()

	if !cmd.Root().PersistentFlags().Changed("manifests") {
		flags.manifests = settings.ManifestsDir
	}
	if !cmd.Root().PersistentFlags().Changed("state-file") {
		flags.stateFile = settings.StateFile
	}
	if !cmd.Root().PersistentFlags().Changed("log-level") {
		flags.logLevel = settings.LogLevel
	}
	if !cmd.Root().PersistentFlags().Changed("serve") {
		flags.serve = settings.ServeAddr
	}
	if !cmd.Root().PersistentFlags().Changed("metrics") {
		flags.metrics = settings.MetricsEnabled
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.NewSlogLoggerAtLevel(flags.logLevel)

	manifests, err := loadManifests(flags.manifests)
	if err != nil {
		return err
	}

	st, err := filestate.Load(flags.stateFile, logger)
	if err != nil {
		return fmt.Errorf("task-orchestrator: failed to load state file %q: %w", flags.stateFile, err)
	}

	hooks := hook.NewRegistry(logger)
	hooks.RegisterHook(hook.NewAuditLogHook("audit-log", processor.DefaultSupportedCommands, []string{flags.environment}, lifecycle.AllDefaultStages(), logger))

	collector := metrics.New(metrics.Config{Enabled: flags.metrics})
	hooks.RegisterHook(collector.Hook(processor.DefaultSupportedCommands, []string{flags.environment}))

	eng, err := engine.New(ctx, logger, kvstore.New(), hooks, st)
	if err != nil {
		return err
	}
	eng.RegisterProcessor(demo.NewShellProcessor(logger))
	eng.RegisterProcessor(demo.NewNoopProcessor(logger))

	for _, m := range manifests {
		t := task.New(m.Kind, m.Version, m.Spec, m.Metadata)
		if err := eng.AddTask(ctx, t); err != nil {
			return fmt.Errorf("task-orchestrator: failed to register task from manifest (kind=%s, version=%s): %w", m.Kind, m.Version, err)
		}
	}

	if flags.serve != "" {
		server := statusapi.New(eng, logger)
		go func() {
			logger.Info("task-orchestrator: status API listening on %s", flags.serve)
			if err := http.ListenAndServe(flags.serve, server.Handler()); err != nil {
				logger.Error("task-orchestrator: status API exited: %v", err)
			}
		}()
	}

	if err := eng.ProcessContext(ctx, command, flags.environment); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗ %s failed in environment %q: %v", command, flags.environment, err))
		return fmt.Errorf("task-orchestrator: %s failed in environment %q: %w", command, flags.environment, err)
	}

	if err := st.PersistAll(ctx); err != nil {
		return fmt.Errorf("task-orchestrator: failed to persist state to %q: %w", flags.stateFile, err)
	}

	plan, err := eng.CalculateCurrentTaskOrder(identifier.BuildCommandIdentifier(command, flags.environment))
	if err != nil {
		return err
	}
	fmt.Println(color.GreenString("✓ %s completed for %d task(s) in environment %q", command, len(plan), flags.environment))
	logger.Info("task-orchestrator: %s completed for %d task(s) in environment %q: %s", command, len(plan), flags.environment, strings.Join(plan, ", "))
	return nil
}

func loadManifests(dir string) ([]ingest.Manifest, error) {
	var manifests []ingest.Manifest
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("task-orchestrator: failed to read manifests directory %q: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("task-orchestrator: failed to open manifest %q: %w", path, err)
		}
		decoded, err := ingest.DecodeManifestsYAML(f)
		closeErr := f.Close()
		if err != nil {
			return nil, fmt.Errorf("task-orchestrator: failed to decode manifest %q: %w", path, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("task-orchestrator: failed to close manifest %q: %w", path, closeErr)
		}
		manifests = append(manifests, decoded...)
	}

	return manifests, nil
}
