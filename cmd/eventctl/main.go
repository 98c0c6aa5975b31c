// Command eventctl performs administrative tasks against the event database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sudanchapagain/event-booking-system/internal/app"
	"github.com/sudanchapagain/event-booking-system/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "eventctl",
		Short:         "Administer the event booking system",
		SilenceUsage: true,
	}
	root.AddCommand(
		newRebuildCmd(),
		newRequestRebuildCmd(),
		newSimilarCmd(),
		newUserCmd(),
	)
	return root
}

// openApp loads configuration and connects to storage
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(ctx, cfg, cfg.NewLogger())
	if err != nil {
		return nil, err
	}
	return a, nil
}
