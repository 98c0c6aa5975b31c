package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/sudanchapagain/event-booking-system/internal/errors"
	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	count int
	err   error
}

func (f fakeEmbedder) RebuildAllEmbeddings(context.Context) (int, error) { return f.count, f.err }

func noop() {}

func TestRebuildCmd(t *testing.T) {
	t.Run("prints count", func(t *testing.T) {
		cmd := newRebuildCmdWith(func(context.Context) (embedder, func(), error) {
			return fakeEmbedder{count: 12}, noop, nil
		})
		var out strings.Builder
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})

		require.NoError(t, cmd.Execute())
		assert.Equal(t, "Rebuilt embeddings for 12 events\n", out.String())
	})

	t.Run("reports partial progress", func(t *testing.T) {
		cmd := newRebuildCmdWith(func(context.Context) (embedder, func(), error) {
			return fakeEmbedder{count: 2, err: errors.New("connection reset")}, noop, nil
		})
		cmd.SetOut(&strings.Builder{})
		cmd.SetErr(&strings.Builder{})
		cmd.SetArgs([]string{})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 processed before failure")
	})
}

type fakeEvents map[string]*models.Event

func (f fakeEvents) GetBySlug(_ context.Context, slug string) (*models.Event, error) {
	if e, ok := f[slug]; ok {
		return e, nil
	}
	return nil, apperrors.NewNotFoundError("event", slug)
}

type fakeSimilar struct {
	events []*models.Event
	limit  int
}

func (f *fakeSimilar) GetSimilarEvents(_ context.Context, _ *models.Event, limit int) ([]*models.Event, error) {
	f.limit = limit
	return f.events, nil
}

func TestSimilarCmd(t *testing.T) {
	events := fakeEvents{"jazz-night": {ID: "evt1", Slug: "jazz-night"}}
	similar := &fakeSimilar{events: []*models.Event{
		{Slug: "jazz-festival", Title: "Jazz Festival", Location: "Pokhara"},
	}}
	open := func(context.Context) (eventFinder, similarFinder, func(), error) {
		return events, similar, noop, nil
	}

	cmd := newSimilarCmdWith(open)
	var out, errOut strings.Builder
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"jazz-night", "--limit", "3"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, 3, similar.limit)
	assert.Contains(t, out.String(), "jazz-festival")
	assert.Contains(t, out.String(), "Pokhara")
	assert.Contains(t, errOut.String(), "no embedding yet")

	cmd = newSimilarCmdWith(open)
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})
	cmd.SetArgs([]string{"missing"})
	assert.ErrorIs(t, cmd.Execute(), apperrors.ErrNotFound)
}

type fakeUsers struct{ created *models.UserCreate }

func (f *fakeUsers) Create(_ context.Context, in *models.UserCreate) (*models.User, error) {
	f.created = in
	return &models.User{ID: "2abc", Username: in.Username}, nil
}

func TestUserCreateCmd(t *testing.T) {
	users := &fakeUsers{}
	open := func(context.Context) (userCreator, func(), error) { return users, noop, nil }

	cmd := newUserCreateCmdWith(open)
	var out strings.Builder
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--email", "ram@example.com", "--username", "ram", "--organizer", "--phone", "9812345678"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Created user 2abc (ram)\n", out.String())
	require.NotNil(t, users.created)
	assert.True(t, users.created.IsOrganizer)
	assert.False(t, users.created.IsSiteAdmin)

	for _, args := range [][]string{
		{"--username", "ram"},
		{"--email", "ram@example.com", "--username", "ram", "--phone", "12345"},
	} {
		cmd := newUserCreateCmdWith(open)
		cmd.SetOut(&strings.Builder{})
		cmd.SetErr(&strings.Builder{})
		cmd.SetArgs(args)
		assert.Error(t, cmd.Execute(), args)
	}
}

func TestRootCmdRegistersSubcommands(t *testing.T) {
	var names []string
	for _, c := range newRootCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"rebuild-embeddings", "request-rebuild", "similar", "user"}, names)
}
