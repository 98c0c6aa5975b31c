package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/spf13/cobra"
)

type eventFinder interface {
	GetBySlug(ctx context.Context, slug string) (*models.Event, error)
}

type similarFinder interface {
	GetSimilarEvents(ctx context.Context, event *models.Event, limit int) ([]*models.Event, error)
}

// similarDeps opens the lookups "similar" needs and returns a release func
type similarDeps func(ctx context.Context) (eventFinder, similarFinder, func(), error)

func newSimilarCmdWith(open similarDeps) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "similar <slug>",
		Short: "Print the events most similar to an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			events, similar, release, err := open(ctx)
			if err != nil {
				return fmt.Errorf("similar: %w", err)
			}
			defer release()

			event, err := events.GetBySlug(ctx, args[0])
			if err != nil {
				return fmt.Errorf("similar: %w", err)
			}
			if len(event.Embedding) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s has no embedding yet; run rebuild-embeddings\n", event.Slug)
			}

			related, err := similar.GetSimilarEvents(ctx, event, limit)
			if err != nil {
				return fmt.Errorf("similar: %w", err)
			}
			if len(related) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No similar events")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tSLUG\tTITLE\tLOCATION")
			for i, e := range related {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, e.Slug, e.Title, e.Location)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "maximum number of events to print")
	return cmd
}

func newSimilarCmd() *cobra.Command {
	return newSimilarCmdWith(func(ctx context.Context) (eventFinder, similarFinder, func(), error) {
		a, err := openApp(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		return a.Events, a.Similarity, a.Close, nil
	})
}
