package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arvid/lumen/pkg/agent"
	"github.com/arvid/lumen/pkg/sessionblob"
	"github.com/arvid/lumen/pkg/telemetry"
)

var runFlags struct {
	name         string
	model        string
	system       string
	temperature  float64
	topP         float64
	tools        []string
	sessionPath  string
	experimentID string
	taskLabel    string
	runNotes     string
	refresh      bool
}

var runCmd = &cobra.Command{
	Use:   "run [message]",
	Short: "Execute one streamed agent turn",
	Long: `Build an agent and run a single turn, streaming the response to stdout.
Ctrl-C cancels cooperatively: the partial text is kept and the run is
recorded as aborted. The completed run is appended to the telemetry log
with token usage, latency and estimated cost.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runFlags.name, "name", "default", "agent name")
	runCmd.Flags().StringVar(&runFlags.model, "model", "claude-sonnet-4", "model identifier")
	runCmd.Flags().StringVar(&runFlags.system, "system", "", "system prompt")
	runCmd.Flags().Float64Var(&runFlags.temperature, "temperature", 0.7, "sampling temperature [0,2]")
	runCmd.Flags().Float64Var(&runFlags.topP, "top-p", 0, "nucleus sampling cutoff [0,1]")
	runCmd.Flags().StringSliceVar(&runFlags.tools, "tools", nil, "capability tools (basic-arithmetic, current-time, web-fetch)")
	runCmd.Flags().StringVar(&runFlags.sessionPath, "session", "", "load agent config and model from a session file")
	runCmd.Flags().StringVar(&runFlags.experimentID, "experiment", "", "experiment tag for the telemetry record")
	runCmd.Flags().StringVar(&runFlags.taskLabel, "label", "", "task label for the telemetry record")
	runCmd.Flags().StringVar(&runFlags.runNotes, "notes", "", "free-text notes for the telemetry record")
	runCmd.Flags().BoolVar(&runFlags.refresh, "refresh", false, "refresh the model catalog before resolving the model")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer log.Close()
	zlog := log.GetZerolog()

	agentConfig, modelID, err := resolveAgentConfig(zlog)
	if err != nil {
		return err
	}

	svc, refresher, err := newCatalog(cfg, zlog)
	if err != nil {
		return err
	}
	if refresher != nil {
		defer refresher.Stop()
	}
	_, source := svc.GetModels(cmd.Context(), runFlags.refresh)

	builder := agent.NewBuilder(agent.BuilderConfig{
		Credentials: agent.Credentials{
			AnthropicAPIKey: cfg.Credentials.AnthropicAPIKey,
			OpenAIAPIKey:    cfg.Credentials.OpenAIAPIKey,
		},
		WebAllowlist: cfg.Tools.WebAllowlist,
		Logger:       zlog,
	})
	ag, err := builder.Build(agentConfig, modelID)
	if err != nil {
		return err
	}

	store := telemetry.NewStore(cfg.Telemetry.Path, zlog)
	if err := store.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize telemetry store: %w", err)
	}

	runner, err := agent.NewRunner(agent.RunnerConfig{
		Store:              store,
		Logger:             zlog,
		SkipAbortedAppends: !cfg.Telemetry.AppendAborted,
	})
	if err != nil {
		return err
	}

	// Ctrl-C sets the cancel signal; the runner finishes the turn cleanly.
	cancel := agent.NewCancelSignal()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel.Cancel()
	}()

	result, err := runner.Run(cmd.Context(), ag, args[0], agent.RunOptions{
		Cancel: cancel,
		OnDelta: func(delta string) {
			fmt.Print(delta)
		},
		ExperimentID:    runFlags.experimentID,
		TaskLabel:       runFlags.taskLabel,
		RunNotes:        runFlags.runNotes,
		ModelListSource: telemetry.ModelListSource(source),
	})
	fmt.Println()

	var execErr *agent.ExecutionError
	if errors.As(err, &execErr) {
		return fmt.Errorf("run failed after %d characters: %w", len(execErr.Partial), execErr)
	}
	if err != nil {
		return err
	}

	if result.Aborted {
		fmt.Fprintln(os.Stderr, "(run cancelled)")
	}
	if result.Usage != nil {
		fmt.Fprintf(os.Stderr, "tokens: %d prompt + %d completion, latency: %dms\n",
			result.Usage.PromptTokens, result.Usage.CompletionTokens, result.LatencyMs)
	}

	return nil
}

// resolveAgentConfig builds the AgentConfig from the session file when given,
// otherwise from the flags.
func resolveAgentConfig(zlog zerolog.Logger) (agent.AgentConfig, string, error) {
	if runFlags.sessionPath != "" {
		data, err := os.ReadFile(runFlags.sessionPath)
		if err != nil {
			return agent.AgentConfig{}, "", fmt.Errorf("failed to read session file: %w", err)
		}
		session, err := sessionblob.NewDecoder(zlog).Decode(data)
		if err != nil {
			return agent.AgentConfig{}, "", err
		}
		return session.Config, session.ModelID, nil
	}

	return agent.AgentConfig{
		Name:         runFlags.name,
		Model:        runFlags.model,
		SystemPrompt: runFlags.system,
		Temperature:  runFlags.temperature,
		TopP:         runFlags.topP,
		Tools:        runFlags.tools,
	}, "", nil
}
