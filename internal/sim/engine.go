package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/chatsim-dev/chatsim/internal/api"
	"github.com/chatsim-dev/chatsim/internal/errors"
	"github.com/chatsim-dev/chatsim/internal/match"
)

// Engine replays test-case sequences against conversation sessions. It holds
// no mutable state across calls: every Simulate call clones its session
// input, so one Engine is safe for concurrent callers.
type Engine struct {
	config *Config
	runner ToolRunner
	logger *slog.Logger
}

// Result is the outcome of one simulation run.
type Result struct {
	// Response is the final formatted response.
	Response *api.Response
	// StepIndex is the index of the sequence step that produced Response.
	StepIndex int
	// Session is the working session after the run, including the applied
	// responses and any folded tool results. The caller's input is untouched.
	Session *api.Request
}

// New creates an engine over a validated test config. The runner may be nil
// when no test case uses the execute behavior.
func New(config *Config, runner ToolRunner, logger *slog.Logger) *Engine {
	return &Engine{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// Simulate runs the named test case against a session snapshot and returns
// the formatted response of the first step that completes a turn.
//
// The sequence is scanned with an explicit cursor, in declared order. A step
// whose rule does not match the current session state is passed over without
// being consumed; the first matching step wins. A matched response with tool
// invocations is resolved per the step's behavior, folded back into the
// working session, and matching resumes at the following step. The caller's
// session is never mutated.
func (e *Engine) Simulate(ctx context.Context, testName string, session *api.Request) (*Result, error) {
	tc := e.config.Test(testName)
	if tc == nil {
		return nil, errors.TestNotFound(testName)
	}

	working := session.Clone()

	for i := 0; i < len(tc.Sequence); i++ {
		step := tc.Sequence[i]

		snapshot, err := serialize(working)
		if err != nil {
			return nil, err
		}

		matched, err := match.Evaluate(snapshot, step.Match)
		if err != nil {
			return nil, err
		}
		if !matched {
			e.logger.Debug("step did not match, trying next",
				"test", testName,
				"step", i,
				"path", step.Match.Path,
			)
			continue
		}

		e.logger.Debug("step matched",
			"test", testName,
			"step", i,
			"type", step.Match.Kind,
		)

		response := step.Response.Clone()
		working.Messages = append(working.Messages, response)

		invocations := extractInvocations(response)
		if len(invocations) == 0 {
			return &Result{
				Response:  e.formatResponse(testName, i, response, working),
				StepIndex: i,
				Session:   working,
			}, nil
		}

		results, halt, err := e.resolveTools(ctx, invocations, step.ToolBehavior, step.ToolResults)
		if err != nil {
			return nil, err
		}
		if halt {
			// The tool_use is surfaced, not executed; the simulated provider
			// is waiting on the client to run the tool.
			return &Result{
				Response:  e.formatResponse(testName, i, response, working),
				StepIndex: i,
				Session:   working,
			}, nil
		}

		working.Messages = append(working.Messages, foldResults(results))
		e.logger.Debug("folded tool results, advancing",
			"test", testName,
			"step", i,
			"results", len(results),
		)
	}

	return nil, errors.TestNoMatch(testName)
}

// serialize flattens the working session into the plain JSON-shaped
// structure match rules resolve against.
func serialize(session *api.Request) (map[string]any, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("serializing session: %w", err)
	}
	var snapshot map[string]any
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("serializing session: %w", err)
	}
	return snapshot, nil
}
