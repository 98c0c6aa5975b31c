package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sudanchapagain/event-booking-system/internal/middleware"
	"github.com/sudanchapagain/event-booking-system/internal/models"
	"github.com/sudanchapagain/event-booking-system/internal/similarity"

	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// SimilarityServiceImpl persists TF-IDF embeddings for approved events and
// answers related-event queries against them.
type SimilarityServiceImpl struct {
	events   EventIndex
	cache    RankCache
	engine   *similarity.Engine
	opts     similarity.RankOptions
	cacheTTL time.Duration
	log      *logrus.Entry

	newGeneration func() string
}

// NewSimilarityService creates the service; opts.Limit is ignored.
func NewSimilarityService(
	events EventIndex,
	cache RankCache,
	engine *similarity.Engine,
	opts similarity.RankOptions,
	cacheTTL time.Duration,
	log *logrus.Entry,
) *SimilarityServiceImpl {
	return &SimilarityServiceImpl{
		events:   events,
		cache:    cache,
		engine:   engine,
		opts:     opts,
		cacheTTL: cacheTTL,
		log:      log,

		newGeneration: func() string { return ksuid.New().String() },
	}
}

// RebuildAllEmbeddings rebuilds one snapshot over every approved event and
// stores each event's vector tagged with a generation ID unique to this pass.
// Two passes over corpora with the same vocabulary still get distinct
// generations, so rankings cached against the previous pass are never reused.
// It returns how many events were written; on a persistence error it stops
// and earlier writes stay in place.
func (s *SimilarityServiceImpl) RebuildAllEmbeddings(ctx context.Context) (int, error) {
	ctx, span := middleware.StartSpan(ctx, "SimilarityService.RebuildAllEmbeddings")
	defer span.End()

	events, err := s.events.ListApprovedForIndexing(ctx)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return 0, fmt.Errorf("failed to load corpus: %w", err)
	}

	sources := make([]similarity.Source, len(events))
	for i, e := range events {
		sources[i] = e
	}
	snap := s.engine.Build(sources)

	generation := ""
	if !snap.Empty() {
		generation = s.newGeneration()
	}

	span.SetAttributes(
		attribute.Int("corpus.size", len(events)),
		attribute.Int("vocabulary.size", snap.Len()),
		attribute.String("snapshot.fingerprint", snap.ID),
		attribute.String("snapshot.generation", generation),
	)

	processed := 0
	for _, e := range events {
		var vector []float64
		if !snap.Empty() {
			vector = s.engine.Vector(snap, e)
		}
		if err := s.events.SaveEmbedding(ctx, e.ID, vector, generation); err != nil {
			middleware.AddSpanError(ctx, err)
			return processed, fmt.Errorf("failed to store embedding for event %s: %w", e.ID, err)
		}
		processed++
	}

	s.log.WithFields(logrus.Fields{
		"processed":   processed,
		"vocabulary":  snap.Len(),
		"generation":  generation,
		"fingerprint": snap.ID,
	}).Info("Rebuilt event embeddings")

	return processed, nil
}

// GetSimilarEvents returns up to limit approved events most similar to event,
// best first. An event without an embedding has no similar events.
func (s *SimilarityServiceImpl) GetSimilarEvents(ctx context.Context, event *models.Event, limit int) ([]*models.Event, error) {
	ctx, span := middleware.StartSpan(ctx, "SimilarityService.GetSimilarEvents",
		attribute.String("event.id", event.ID),
		attribute.Int("limit", limit),
	)
	defer span.End()

	if limit <= 0 || len(event.Embedding) == 0 {
		return []*models.Event{}, nil
	}

	key := cacheKey(event, limit)
	if key != "" {
		ids, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.WithError(err).Warn("Similar events cache read failed")
		} else if ok {
			middleware.AddSpanEvent(ctx, "cache.hit")
			return s.fetchOrdered(ctx, ids)
		}
	}

	pool, err := s.events.ListSimilarityCandidates(ctx, event.ID)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	candidates := make([]similarity.Candidate, len(pool))
	for i, e := range pool {
		candidates[i] = e.SimilarityCandidate()
	}

	opts := s.opts
	opts.Limit = limit
	matches := similarity.Rank(event.SimilarityCandidate(), candidates, opts)

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	span.SetAttributes(attribute.Int("candidates", len(pool)), attribute.Int("matches", len(ids)))

	if key != "" {
		if err := s.cache.Set(ctx, key, ids, s.cacheTTL); err != nil {
			s.log.WithError(err).Warn("Similar events cache write failed")
		}
	}

	return s.fetchOrdered(ctx, ids)
}

// fetchOrdered bulk-loads events and returns them in the order of ids,
// dropping any that vanished or lost approval since ranking.
func (s *SimilarityServiceImpl) fetchOrdered(ctx context.Context, ids []string) ([]*models.Event, error) {
	result := make([]*models.Event, 0, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	events, err := s.events.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load similar events: %w", err)
	}

	byID := make(map[string]*models.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	for _, id := range ids {
		if e, ok := byID[id]; ok && e.IsApproved {
			result = append(result, e)
		}
	}
	return result, nil
}

// cacheKey is keyed by the rebuild generation; it is empty for events whose
// embedding carries none
func cacheKey(event *models.Event, limit int) string {
	if event.EmbeddingSnapshot == "" {
		return ""
	}
	return fmt.Sprintf("similar:%s:%s:%d", event.EmbeddingSnapshot, event.ID, limit)
}
