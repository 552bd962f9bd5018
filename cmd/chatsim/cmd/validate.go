package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chatsim-dev/chatsim/internal/agent"
	"github.com/chatsim-dev/chatsim/internal/api"
	"github.com/chatsim-dev/chatsim/internal/session"
	"github.com/chatsim-dev/chatsim/internal/sim"
	"github.com/chatsim-dev/chatsim/internal/skill"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate test configs, sessions, and definitions",
	Long: `Validate the project's test configs, stored sessions, and agent and
skill definitions.

By default everything is checked. Use --tests, --sessions, --agents, or
--skills to restrict the check to one kind.`,
	RunE: runValidate,
}

var (
	validateTests    bool
	validateSessions bool
	validateAgents   bool
	validateSkills   bool
)

func init() {
	validateCmd.Flags().BoolVar(&validateTests, "tests", false, "validate test configs only")
	validateCmd.Flags().BoolVar(&validateSessions, "sessions", false, "validate stored sessions only")
	validateCmd.Flags().BoolVar(&validateAgents, "agents", false, "validate agent definitions only")
	validateCmd.Flags().BoolVar(&validateSkills, "skills", false, "validate skill definitions only")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := checkWorkDir(); err != nil {
		return err
	}

	dir, cfg, _, closer, err := loadProject()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	all := !validateTests && !validateSessions && !validateAgents && !validateSkills
	failed := 0

	if all || validateTests {
		failed += validateTestConfigs(cfg.TestsDir(dir))
	}
	if all || validateSessions {
		failed += validateSessionFiles(cfg.SessionsDir(dir), cfg.Sessions.Backups)
	}
	if all || validateAgents {
		failed += validateAgentDefs(cfg.AgentsDir(dir))
	}
	if all || validateSkills {
		failed += validateSkillDefs(cfg.SkillsDir(dir))
	}

	if failed > 0 {
		return fmt.Errorf("validation failed for %d item(s)", failed)
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

// validateTestConfigs checks each test config file individually, then the
// merged set for cross-file duplicates. Lint warnings do not fail the check.
func validateTestConfigs(testsDir string) int {
	fmt.Println("Test configs:")

	entries, err := os.ReadDir(testsDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  (none)")
			return 0
		}
		fmt.Printf("  ✗ %s: %v\n", testsDir, err)
		return 1
	}

	failed := 0
	checked := 0
	for _, entry := range entries {
		if entry.IsDir() || !testFile(entry.Name()) {
			continue
		}
		checked++
		path := filepath.Join(testsDir, entry.Name())
		cfg, err := sim.LoadConfig(path)
		if err != nil {
			fmt.Printf("  ✗ %s: %v\n", entry.Name(), err)
			failed++
			continue
		}
		fmt.Printf("  ✓ %s (%d test case(s))\n", entry.Name(), len(cfg.Tests))
		for _, warning := range cfg.Lint() {
			fmt.Printf("    warning: %s\n", warning)
		}
	}
	if checked == 0 {
		fmt.Println("  (none)")
		return failed
	}

	if _, err := loadTests(testsDir); err != nil {
		fmt.Printf("  ✗ merged: %v\n", err)
		failed++
	}
	return failed
}

func validateSessionFiles(sessionsDir string, backups int) int {
	fmt.Println("Sessions:")

	store, err := session.NewStore(sessionsDir, backups)
	if err != nil {
		fmt.Printf("  ✗ %s: %v\n", sessionsDir, err)
		return 1
	}
	names, err := store.List()
	if err != nil {
		fmt.Printf("  ✗ %s: %v\n", sessionsDir, err)
		return 1
	}
	if len(names) == 0 {
		fmt.Println("  (none)")
		return 0
	}

	failed := 0
	for _, name := range names {
		req, err := store.Get(name)
		if err != nil {
			fmt.Printf("  ✗ %s: %v\n", name, err)
			failed++
			continue
		}
		if result := api.ValidateSession(req); result.HasErrors() {
			fmt.Printf("  ✗ %s: %v\n", name, result)
			failed++
			continue
		}
		fmt.Printf("  ✓ %s (%d message(s))\n", name, len(req.Messages))
	}
	return failed
}

func validateAgentDefs(agentsDir string) int {
	fmt.Println("Agents:")

	entries, err := os.ReadDir(agentsDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  (none)")
			return 0
		}
		fmt.Printf("  ✗ %s: %v\n", agentsDir, err)
		return 1
	}

	failed := 0
	checked := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		checked++
		a, err := agent.ParseFile(filepath.Join(agentsDir, entry.Name()))
		if err != nil {
			fmt.Printf("  ✗ %s: %v\n", entry.Name(), err)
			failed++
			continue
		}
		fmt.Printf("  ✓ %s\n", a.Name)
	}
	if checked == 0 {
		fmt.Println("  (none)")
	}
	return failed
}

func validateSkillDefs(skillsDir string) int {
	fmt.Println("Skills:")

	entries, err := os.ReadDir(skillsDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  (none)")
			return 0
		}
		fmt.Printf("  ✗ %s: %v\n", skillsDir, err)
		return 1
	}

	failed := 0
	checked := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(skillsDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, skill.ManifestName)); err != nil {
			continue
		}
		checked++
		s, err := skill.LoadFromDir(dir)
		if err != nil {
			fmt.Printf("  ✗ %s: %v\n", entry.Name(), err)
			failed++
			continue
		}
		fmt.Printf("  ✓ %s\n", s.Name)
	}
	if checked == 0 {
		fmt.Println("  (none)")
	}
	return failed
}
