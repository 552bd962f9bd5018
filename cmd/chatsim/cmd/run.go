package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/chatsim-dev/chatsim/internal/agent"
	"github.com/chatsim-dev/chatsim/internal/api"
	"github.com/chatsim-dev/chatsim/internal/config"
	"github.com/chatsim-dev/chatsim/internal/logging"
	"github.com/chatsim-dev/chatsim/internal/session"
	"github.com/chatsim-dev/chatsim/internal/sim"
	"github.com/chatsim-dev/chatsim/internal/skill"
	"github.com/chatsim-dev/chatsim/internal/toolexec"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <test>",
	Short: "Run a test case against a session",
	Long: `Run a test case against a session and print the simulated response.

The session comes from the session store (--session <name>) or, when no
name is given, from a JSON request on stdin. Tool calls follow each
matched step's tool_behavior; "execute" steps run the shell commands
configured under [tools] in config.toml.

With --agent, the named agent definition is applied to the session
first: its prompt and skills become system blocks, its model fills an
unset session model, and its tools are declared on the session.

With --session, the updated session (including the assistant responses
and any tool round-trips) is written back to the store afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var (
	runSession string
	runAgent   string
	runStream  bool
)

func init() {
	runCmd.Flags().StringVar(&runSession, "session", "", "load the session from the session store")
	runCmd.Flags().StringVar(&runAgent, "agent", "", "apply the named agent definition to the session")
	runCmd.Flags().BoolVar(&runStream, "stream", false, "print the response as a server-sent event stream")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	testName := args[0]

	if err := checkWorkDir(); err != nil {
		return err
	}

	dir, cfg, logger, closer, err := loadProject()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	logger = logging.WithTest(logger, testName)

	tests, err := loadTests(cfg.TestsDir(dir))
	if err != nil {
		return fmt.Errorf("loading tests: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the session, holding its lock for the duration of the run when
	// it comes from the store.
	var (
		store *session.Store
		req   *api.Request
	)
	if runSession != "" {
		store, err = session.NewStore(cfg.SessionsDir(dir), cfg.Sessions.Backups)
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		lock, err := store.Acquire(runSession)
		if err != nil {
			return err
		}
		defer lock.Release()

		req, err = store.Get(runSession)
		if err != nil {
			return err
		}
		logger = logging.WithSession(logger, runSession)
	} else {
		req, err = readSessionStdin(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}
	if runAgent != "" {
		agents := agent.NewRegistry(cfg.AgentsDir(dir))
		a, err := agents.Get(runAgent)
		if err != nil {
			return err
		}
		skills := skill.NewRegistry(cfg.SkillsDir(dir))
		if err := applyAgent(req, a, skills); err != nil {
			return err
		}
		logger = logger.With("agent", a.Name)
	}
	applyDefaults(cfg, req)

	if result := api.ValidateSession(req); result.HasErrors() {
		return fmt.Errorf("invalid session: %w", result)
	}

	var runner sim.ToolRunner
	if len(cfg.Tools) > 0 {
		runner = toolexec.NewShellRunner(cfg.Tools)
	}

	engine := sim.New(tests, runner, logger)
	result, err := engine.Simulate(ctx, testName, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runStream {
		if err := printStream(out, result.Response); err != nil {
			return err
		}
	} else {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Response); err != nil {
			return err
		}
	}

	// Persist the conversation as it stood after the final response,
	// including any folded tool round-trips.
	if store != nil {
		if err := store.Save(runSession, result.Session); err != nil {
			return err
		}
		logger.Info("session saved", "session", runSession, "messages", len(result.Session.Messages))
	}

	return nil
}

// readSessionStdin decodes a JSON request from stdin.
func readSessionStdin(in io.Reader) (*api.Request, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("reading session from stdin: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no session given: pass --session <name> or pipe a JSON request to stdin")
	}

	var req api.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	return &req, nil
}

// applyDefaults fills unset session fields from the project defaults. An
// explicit "temperature": 0 in the session is kept as-is; only a missing
// field takes the default.
func applyDefaults(cfg *config.Config, req *api.Request) {
	if req.Model == "" {
		req.Model = cfg.Defaults.Model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = cfg.Defaults.MaxTokens
	}
	if req.Temperature == nil {
		temp := cfg.Defaults.Temperature
		req.Temperature = &temp
	}
}

// applyAgent overlays an agent definition on the session: the agent's
// prompt and the bodies of its skills are prepended as system blocks, the
// agent's model fills an unset session model, and the agent's tools are
// declared on the session. Skills resolve through the registry so repeated
// runs in one process re-read only changed definitions.
func applyAgent(req *api.Request, a *agent.Agent, skills *skill.Registry) error {
	if req.Model == "" {
		req.Model = a.Model
	}

	var system []api.SystemBlock
	if a.Prompt != "" {
		system = append(system, api.SystemBlock{Type: "text", Text: a.Prompt})
	}
	for _, name := range a.Skills {
		s, err := skills.Get(name)
		if err != nil {
			return err
		}
		system = append(system, api.SystemBlock{Type: "text", Text: s.Body})
	}
	req.System = append(system, req.System...)

	declared := make(map[string]bool, len(req.Tools))
	for _, tool := range req.Tools {
		declared[tool.Name] = true
	}
	for _, name := range a.Tools {
		if !declared[name] {
			req.Tools = append(req.Tools, api.Tool{Name: name})
		}
	}
	return nil
}

// printStream renders the response as a server-sent event stream.
func printStream(w io.Writer, resp *api.Response) error {
	for _, event := range sim.FormatStream(resp) {
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
			return err
		}
	}
	return nil
}
