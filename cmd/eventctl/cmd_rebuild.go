package main

import (
	"context"
	"fmt"

	"github.com/sudanchapagain/event-booking-system/internal/notify"

	"github.com/spf13/cobra"
)

type embedder interface {
	RebuildAllEmbeddings(ctx context.Context) (int, error)
}

type embedderDeps func(ctx context.Context) (embedder, func(), error)

// newRebuildCmdWith creates "eventctl rebuild-embeddings".
func newRebuildCmdWith(open embedderDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-embeddings",
		Short: "Recompute embeddings for every approved event",
		Long:  "Rebuilds the shared vocabulary and every approved event's embedding in this process.\nPrints the number of events processed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, release, err := open(cmd.Context())
			if err != nil {
				return fmt.Errorf("rebuild-embeddings: %w", err)
			}
			defer release()

			count, err := e.RebuildAllEmbeddings(cmd.Context())
			if err != nil {
				return fmt.Errorf("rebuild-embeddings: %d processed before failure: %w", count, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt embeddings for %d events\n", count)
			return nil
		},
	}
}

func newRebuildCmd() *cobra.Command {
	return newRebuildCmdWith(func(ctx context.Context) (embedder, func(), error) {
		a, err := openApp(ctx)
		if err != nil {
			return nil, nil, err
		}
		return a.Similarity, a.Close, nil
	})
}

func newRequestRebuildCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "request-rebuild",
		Short: "Ask running servers to rebuild embeddings",
		Long:  "Sends a Postgres NOTIFY on the rebuild channel. Every listening server queues a rebuild\nunless one is already pending.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("request-rebuild: %w", err)
			}
			defer a.Close()

			channel := a.Config.RebuildNotifyChannel
			if channel == "" {
				return fmt.Errorf("request-rebuild: REBUILD_NOTIFY_CHANNEL is empty")
			}
			if err := notify.Publish(cmd.Context(), a.DB.DB, channel, reason); err != nil {
				return fmt.Errorf("request-rebuild: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rebuild requested on channel %s\n", channel)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "eventctl", "reason recorded in server logs")
	return cmd
}
