package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/duelword/internal/session"
)

var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Discard the saved game so the next play starts fresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.OpenSnapshotStore(GetConfig().Storage)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(); err != nil {
			return err
		}
		cmd.Println("Saved game discarded.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(forgetCmd)
}
