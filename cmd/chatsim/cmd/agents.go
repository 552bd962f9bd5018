package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/chatsim-dev/chatsim/internal/agent"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List agent definitions",
	RunE:  runAgents,
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}

func runAgents(cmd *cobra.Command, args []string) error {
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

	agents, err := agent.List(cfg.AgentsDir(dir))
	if err != nil {
		return fmt.Errorf("listing agents: %w", err)
	}

	if len(agents) == 0 {
		fmt.Println("No agents found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODEL\tDESCRIPTION")
	for _, a := range agents {
		model := a.Model
		if model == "" {
			model = "(default)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.Name, model, a.Description)
	}
	return w.Flush()
}
