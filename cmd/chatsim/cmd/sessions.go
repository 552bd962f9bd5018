package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/chatsim-dev/chatsim/internal/cli"
	"github.com/chatsim-dev/chatsim/internal/session"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions",
	RunE:  runSessions,
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a stored session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsRm,
}

var sessionsRmYes bool

func init() {
	sessionsRmCmd.Flags().BoolVarP(&sessionsRmYes, "yes", "y", false, "skip the confirmation prompt")
	sessionsCmd.AddCommand(sessionsRmCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func openStore() (*session.Store, error) {
	dir, cfg, _, closer, err := loadProject()
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer.Close()
	}
	return session.NewStore(cfg.SessionsDir(dir), cfg.Sessions.Backups)
}

func runSessions(cmd *cobra.Command, args []string) error {
	if err := checkWorkDir(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	names, err := store.List()
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if len(names) == 0 {
		fmt.Println("No sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMESSAGES")
	for _, name := range names {
		req, err := store.Get(name)
		if err != nil {
			fmt.Fprintf(w, "%s\t(invalid: %v)\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\n", name, len(req.Messages))
	}
	return w.Flush()
}

func runSessionsRm(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := checkWorkDir(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	if !sessionsRmYes {
		ok, err := cli.Confirm(cmd.InOrStdin(), fmt.Sprintf("Delete session %q and its backups?", name), false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled")
			return nil
		}
	}

	lock, err := store.Acquire(name)
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := store.Delete(name); err != nil {
		return err
	}

	fmt.Printf("Deleted session %s\n", name)
	return nil
}
