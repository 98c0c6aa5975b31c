// Package app wires configuration, storage and the similarity engine shared
// by the server and the eventctl CLI.
package app

import (
	"context"
	"fmt"

	"github.com/sudanchapagain/event-booking-system/internal/cache"
	"github.com/sudanchapagain/event-booking-system/internal/config"
	"github.com/sudanchapagain/event-booking-system/internal/db"
	"github.com/sudanchapagain/event-booking-system/internal/repository"
	"github.com/sudanchapagain/event-booking-system/internal/services"
	"github.com/sudanchapagain/event-booking-system/internal/similarity"

	"github.com/sirupsen/logrus"
)

type App struct {
	Config *config.Config
	Log    *logrus.Logger
	DB     *db.GormDB

	Users      *repository.UserRepositoryImpl
	Events     *repository.EventRepositoryImpl
	Categories *repository.CategoryRepositoryImpl
	Bookings   *repository.BookingRepositoryImpl
	Dashboard  *repository.DashboardRepositoryImpl

	Cache      services.RankCache
	Similarity *services.SimilarityServiceImpl

	closers []func() error
}

// New connects to Postgres (and Redis when configured) and builds the
// repositories and similarity service.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	engine, err := NewEngine(cfg.Similarity)
	if err != nil {
		return nil, err
	}

	database, err := db.NewGorm(cfg, log.WithField("component", "db"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &App{
		Config:     cfg,
		Log:        log,
		DB:         database,
		Users:      repository.NewUserRepository(database.DB),
		Events:     repository.NewEventRepository(database.DB),
		Categories: repository.NewCategoryRepository(database.DB),
		Bookings:   repository.NewBookingRepository(database.DB),
		Dashboard:  repository.NewDashboardRepository(database.DB),
		Cache:      cache.Noop{},
	}
	a.closers = append(a.closers, database.Close)

	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, log.WithField("component", "cache"))
		if err != nil {
			log.WithError(err).Warn("Similar-events cache disabled")
		} else {
			a.Cache = rc
			a.closers = append(a.closers, rc.Close)
		}
	}

	a.Similarity = services.NewSimilarityService(
		a.Events,
		a.Cache,
		engine,
		similarity.RankOptions{
			MinScore:       cfg.Similarity.MinScore,
			CategoryFilter: cfg.Similarity.CategoryFilter,
		},
		cfg.SimilarCacheTTL,
		log.WithField("component", "similarity"),
	)
	return a, nil
}

// NewEngine builds the TF-IDF engine from the similarity settings
func NewEngine(cfg config.SimilarityConfig) (*similarity.Engine, error) {
	extra, err := config.LoadStopWords(cfg.StopWordsFile)
	if err != nil {
		return nil, err
	}
	tok := similarity.NewTokenizer(similarity.EnglishStopWords, similarity.DomainStopWords, extra)
	return similarity.NewEngine(tok, similarity.Weights{
		Title:       cfg.TitleWeight,
		Description: cfg.DescriptionWeight,
		Location:    cfg.LocationWeight,
		Categories:  cfg.CategoryWeight,
	}), nil
}

// Close releases connections in reverse order of acquisition
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.WithError(err).Warn("Failed to close resource")
		}
	}
}
