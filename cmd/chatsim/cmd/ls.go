package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var lsJSON bool

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List test cases in this project",
	Long: `List the test cases defined under the tests directory, with their
step counts.

Examples:
  chatsim ls
  chatsim ls --json`,
	RunE: runLs,
}

func init() {
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
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

	tests, err := loadTests(cfg.TestsDir(dir))
	if err != nil {
		return fmt.Errorf("loading tests: %w", err)
	}

	if len(tests.Tests) == 0 {
		fmt.Println("No test cases found")
		return nil
	}

	if lsJSON {
		type testJSON struct {
			Name  string `json:"name"`
			Steps int    `json:"steps"`
		}
		out := make([]testJSON, len(tests.Tests))
		for i, tc := range tests.Tests {
			out[i] = testJSON{Name: tc.Name, Steps: len(tc.Sequence)}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTEPS")
	for _, tc := range tests.Tests {
		fmt.Fprintf(w, "%s\t%d\n", tc.Name, len(tc.Sequence))
	}
	return w.Flush()
}
