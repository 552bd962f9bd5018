package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chatsim-dev/chatsim/internal/api"
	"github.com/chatsim-dev/chatsim/internal/config"
)

func resetRunFlags(t *testing.T) {
	t.Helper()
	runSession = ""
	runAgent = ""
	runStream = false
}

func TestRunWithStoredSession(t *testing.T) {
	dir := initProject(t)
	defer resetRunFlags(t)

	runSession = "example"
	var out bytes.Buffer
	runCmd.SetOut(&out)
	defer runCmd.SetOut(nil)

	if _, err := captureOutput(t, func() error {
		return runRun(runCmd, []string{"greet"})
	}); err != nil {
		t.Fatalf("runRun failed: %v", err)
	}

	var resp api.Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("output is not a response: %v\n%s", err, out.String())
	}
	if resp.Role != api.RoleAssistant {
		t.Errorf("role = %s, want assistant", resp.Role)
	}
	if len(resp.Content) == 0 || !strings.Contains(resp.Content[0].Text, "Hello") {
		t.Errorf("content = %+v, want greeting", resp.Content)
	}

	// The updated session was written back with the assistant reply.
	store, err := openStoreAt(t, dir)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	saved, err := store.Get("example")
	if err != nil {
		t.Fatalf("loading saved session: %v", err)
	}
	if len(saved.Messages) != 2 {
		t.Fatalf("saved messages = %d, want 2", len(saved.Messages))
	}
	if saved.Messages[1].Role != api.RoleAssistant {
		t.Errorf("last message role = %s, want assistant", saved.Messages[1].Role)
	}
}

func TestRunWithAgent(t *testing.T) {
	dir := initProject(t)
	defer resetRunFlags(t)

	agentDef := `---
name: helper
description: Short-reply helper
tools:
  - notes-write
skills:
  - notes
---

Keep replies short.
`
	skillDef := `---
name: notes
description: Note-taking conventions
---

Store notes as markdown bullets.
`
	agentPath := filepath.Join(dir, ".chatsim", "agents", "helper.md")
	if err := os.WriteFile(agentPath, []byte(agentDef), 0644); err != nil {
		t.Fatalf("writing agent: %v", err)
	}
	skillDir := filepath.Join(dir, ".chatsim", "skills", "notes")
	if err := os.MkdirAll(skillDir, 0755); err != nil {
		t.Fatalf("creating skill dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(skillDef), 0644); err != nil {
		t.Fatalf("writing skill: %v", err)
	}

	runSession = "example"
	runAgent = "helper"
	var out bytes.Buffer
	runCmd.SetOut(&out)
	defer runCmd.SetOut(nil)

	if _, err := captureOutput(t, func() error {
		return runRun(runCmd, []string{"greet"})
	}); err != nil {
		t.Fatalf("runRun failed: %v", err)
	}

	// The saved session carries the agent's prompt and skill body as
	// system blocks, and the agent's tools as declarations.
	store, err := openStoreAt(t, dir)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	saved, err := store.Get("example")
	if err != nil {
		t.Fatalf("loading saved session: %v", err)
	}
	if len(saved.System) != 2 {
		t.Fatalf("system blocks = %d, want 2", len(saved.System))
	}
	if !strings.Contains(saved.System[0].Text, "Keep replies short") {
		t.Errorf("system[0] = %q, want agent prompt", saved.System[0].Text)
	}
	if !strings.Contains(saved.System[1].Text, "markdown bullets") {
		t.Errorf("system[1] = %q, want skill body", saved.System[1].Text)
	}
	if len(saved.Tools) != 1 || saved.Tools[0].Name != "notes-write" {
		t.Errorf("tools = %+v, want notes-write declared", saved.Tools)
	}
}

func TestRunWithUnknownAgent(t *testing.T) {
	initProject(t)
	defer resetRunFlags(t)

	runSession = "example"
	runAgent = "nope"
	if _, err := captureOutput(t, func() error {
		return runRun(runCmd, []string{"greet"})
	}); err == nil {
		t.Fatal("runRun should fail for an unknown agent")
	}
}

func TestRunFromStdin(t *testing.T) {
	initProject(t)
	defer resetRunFlags(t)

	session := `{
		"model": "claude-sonnet-4-20250514",
		"max_tokens": 1024,
		"messages": [
			{"role": "user", "content": [{"type": "text", "text": "hello there"}]}
		]
	}`

	var out bytes.Buffer
	runCmd.SetOut(&out)
	runCmd.SetIn(strings.NewReader(session))
	defer func() {
		runCmd.SetOut(nil)
		runCmd.SetIn(nil)
	}()

	if _, err := captureOutput(t, func() error {
		return runRun(runCmd, []string{"greet"})
	}); err != nil {
		t.Fatalf("runRun failed: %v", err)
	}

	var resp api.Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("output is not a response: %v\n%s", err, out.String())
	}
	if resp.StopReason != api.StopEndTurn {
		t.Errorf("stop_reason = %s, want end_turn", resp.StopReason)
	}
}

func TestRunStream(t *testing.T) {
	initProject(t)
	defer resetRunFlags(t)

	runSession = "example"
	runStream = true
	var out bytes.Buffer
	runCmd.SetOut(&out)
	defer runCmd.SetOut(nil)

	if _, err := captureOutput(t, func() error {
		return runRun(runCmd, []string{"greet"})
	}); err != nil {
		t.Fatalf("runRun failed: %v", err)
	}

	text := out.String()
	for _, event := range []string{
		"event: message_start",
		"event: content_block_start",
		"event: content_block_delta",
		"event: content_block_stop",
		"event: message_delta",
		"event: message_stop",
	} {
		if !strings.Contains(text, event) {
			t.Errorf("stream missing %q:\n%s", event, text)
		}
	}
}

// An explicit zero temperature in a session is a deliberate choice and
// must survive defaulting; only a missing field takes the default.
func TestApplyDefaults_Temperature(t *testing.T) {
	cfg := config.Default()

	explicit := 0.0
	req := &api.Request{Model: "m", MaxTokens: 1, Temperature: &explicit}
	applyDefaults(cfg, req)
	if req.Temperature == nil || *req.Temperature != 0 {
		t.Errorf("explicit zero temperature overridden: %v", req.Temperature)
	}

	unset := &api.Request{}
	applyDefaults(cfg, unset)
	if unset.Temperature == nil || *unset.Temperature != cfg.Defaults.Temperature {
		t.Errorf("unset temperature = %v, want default %v", unset.Temperature, cfg.Defaults.Temperature)
	}
	if unset.Model != cfg.Defaults.Model || unset.MaxTokens != cfg.Defaults.MaxTokens {
		t.Errorf("model/max_tokens defaults not applied: %+v", unset)
	}
}

func TestRunUnknownTest(t *testing.T) {
	initProject(t)
	defer resetRunFlags(t)

	runSession = "example"
	if _, err := captureOutput(t, func() error {
		return runRun(runCmd, []string{"nope"})
	}); err == nil {
		t.Fatal("runRun should fail for an unknown test case")
	}
}

func TestRunOutsideProject(t *testing.T) {
	setWorkDir(t, t.TempDir())
	defer resetRunFlags(t)

	if _, err := captureOutput(t, func() error {
		return runRun(runCmd, []string{"greet"})
	}); err == nil {
		t.Fatal("runRun should fail outside a project")
	}
}
