package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/duelword/internal/session"
)

var followStatus bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the game that will be resumed on the next play",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.OpenSnapshotStore(GetConfig().Storage)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := printStatus(cmd, store); err != nil {
			return err
		}
		if !followStatus {
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		err = session.WatchSnapshot(ctx, store, func() {
			if err := printStatus(cmd, store); err != nil {
				cmd.PrintErrln("status:", err)
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func printStatus(cmd *cobra.Command, store session.SnapshotStore) error {
	snap, err := store.Load()
	if err != nil {
		if errors.Is(err, session.ErrNoSnapshot) {
			cmd.Println("no game to resume")
			return nil
		}
		return err
	}

	if snap.SinglePlayerMode {
		cmd.Println("Mode: single player")
	} else {
		cmd.Println("Mode: multiplayer")
		cmd.Printf("Room: %s\n", snap.RoomCode)
	}
	cmd.Printf("Player: %s\n", snap.PlayerName)
	cmd.Printf("Round: %d\n", snap.Round)
	cmd.Printf("Score: %d\n", snap.Score)
	return nil
}

func init() {
	statusCmd.Flags().BoolVarP(&followStatus, "follow", "f", false, "keep printing whenever the saved game changes")
	rootCmd.AddCommand(statusCmd)
}
