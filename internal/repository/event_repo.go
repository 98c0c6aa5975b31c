package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/sudanchapagain/event-booking-system/internal/errors"
	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Minimum trigram similarity for a search hit
const trigramThreshold = 0.12

const confirmedCountSelect = `events.*, (
	SELECT COUNT(*) FROM attendances a
	WHERE a.event_id = events.id AND a.status = 'confirmed'
) AS confirmed_count`

// EventRepositoryImpl handles all database operations for events using GORM
type EventRepositoryImpl struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) *EventRepositoryImpl {
	return &EventRepositoryImpl{db: db}
}

func orderedCategories(db *gorm.DB) *gorm.DB {
	return db.Order("categories.name")
}

// details loads everything the API renders for an event
func (r *EventRepositoryImpl) details(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Event{}).
		Select(confirmedCountSelect).
		Preload("Organizer").
		Preload("Categories", orderedCategories).
		Preload("Dates", func(db *gorm.DB) *gorm.DB { return db.Order("start_date") })
}

// Create inserts the event together with its dates and category links
func (r *EventRepositoryImpl) Create(ctx context.Context, event *models.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// SlugExists reports whether any event already uses slug
func (r *EventRepositoryImpl) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Event{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

func (r *EventRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var event models.Event
	err := r.details(ctx).Where("events.slug = ?", slug).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("event", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

func (r *EventRepositoryImpl) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := r.details(ctx).Where("events.id = ?", id).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("event", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// GetByIDs fetches events in bulk. Order of the result is unspecified.
func (r *EventRepositoryImpl) GetByIDs(ctx context.Context, ids []string) ([]*models.Event, error) {
	var events []*models.Event
	if len(ids) == 0 {
		return events, nil
	}
	if err := r.details(ctx).Where("events.id IN ?", ids).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	return events, nil
}

// Update applies changes inside one transaction: column updates, category
// replacement, removal of past dates and replacement of upcoming ones.
func (r *EventRepositoryImpl) Update(ctx context.Context, event *models.Event, changes *models.EventChanges) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(changes.Fields) > 0 {
			if err := tx.Model(event).Omit("Categories", "Dates", "Organizer").Updates(changes.Fields).Error; err != nil {
				return fmt.Errorf("failed to update event: %w", err)
			}
		}

		if changes.Categories != nil {
			if err := tx.Model(event).Association("Categories").Replace(changes.Categories); err != nil {
				return fmt.Errorf("failed to replace categories: %w", err)
			}
		}

		if err := tx.Where("event_id = ? AND end_date < ?", event.ID, changes.Now).Delete(&models.EventDate{}).Error; err != nil {
			return fmt.Errorf("failed to remove past dates: %w", err)
		}

		if changes.Dates != nil {
			if err := tx.Where("event_id = ?", event.ID).Delete(&models.EventDate{}).Error; err != nil {
				return fmt.Errorf("failed to remove dates: %w", err)
			}
			for i := range changes.Dates {
				changes.Dates[i].EventID = event.ID
			}
			if len(changes.Dates) > 0 {
				if err := tx.Create(&changes.Dates).Error; err != nil {
					return fmt.Errorf("failed to store dates: %w", err)
				}
			}
		}
		return nil
	})
	return err
}

// Delete removes an event; dates, attendances and sales cascade
func (r *EventRepositoryImpl) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Select("Categories").Delete(&models.Event{ID: id})
	if result.Error != nil {
		return fmt.Errorf("failed to delete event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("event", id)
	}
	return nil
}

func (r *EventRepositoryImpl) SetApproved(ctx context.Context, id string, approved bool) error {
	result := r.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).Update("is_approved", approved)
	if result.Error != nil {
		return fmt.Errorf("failed to update approval: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("event", id)
	}
	return nil
}

// Explore lists approved events matching filter, with the total match count.
// Only dates that have not ended by now are loaded.
func (r *EventRepositoryImpl) Explore(ctx context.Context, filter *models.EventFilter, now time.Time) ([]*models.Event, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Event{}).Where("events.is_approved = ?", true)

	search := strings.TrimSpace(filter.Search)
	if search != "" {
		q = q.Where(
			"GREATEST(similarity(events.title, ?), similarity(events.location, ?), similarity(events.description, ?)) >= ?",
			search, search, search, trigramThreshold,
		)
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		q = q.Where("events.location ILIKE ?", "%"+escapeLike(loc)+"%")
	}
	if len(filter.Categories) > 0 {
		q = q.Where(`EXISTS (
			SELECT 1 FROM event_categories ec JOIN categories c ON c.id = ec.category_id
			WHERE ec.event_id = events.id AND (c.slug IN ? OR c.id IN ?))`,
			filter.Categories, filter.Categories)
	}
	if filter.MinPrice != nil {
		q = q.Where("events.ticket_price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("events.ticket_price <= ?", *filter.MaxPrice)
	}
	if filter.FreeOnly {
		q = q.Where("events.ticket_price = 0")
	}
	if filter.DateFrom != nil {
		q = q.Where("EXISTS (SELECT 1 FROM event_dates d WHERE d.event_id = events.id AND d.start_date >= ?)", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("EXISTS (SELECT 1 FROM event_dates d WHERE d.event_id = events.id AND d.start_date < ?)", *filter.DateTo)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	if search != "" {
		q = q.Select(confirmedCountSelect+`, GREATEST(
			similarity(events.title, ?), similarity(events.location, ?), similarity(events.description, ?)
		) AS relevance`, search, search, search).Order("relevance DESC")
	} else {
		q = q.Select(confirmedCountSelect)
	}

	var events []*models.Event
	err := q.
		Order("confirmed_count DESC").
		Order("events.id").
		Preload("Organizer").
		Preload("Categories", orderedCategories).
		Preload("Dates", func(db *gorm.DB) *gorm.DB {
			return db.Where("end_date >= ?", now).Order("start_date")
		}).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to explore events: %w", err)
	}

	return events, total, nil
}

// ListApprovedForIndexing returns every approved event with the fields the
// similarity engine reads, newest first.
func (r *EventRepositoryImpl) ListApprovedForIndexing(ctx context.Context) ([]*models.Event, error) {
	var events []*models.Event
	err := r.db.WithContext(ctx).
		Select("id", "title", "description", "location", "created_at").
		Where("is_approved = ?", true).
		Preload("Categories").
		Order("created_at DESC").
		Order("id DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events for indexing: %w", err)
	}
	return events, nil
}

// ListSimilarityCandidates returns approved events carrying an embedding,
// excluding excludeID, newest first.
func (r *EventRepositoryImpl) ListSimilarityCandidates(ctx context.Context, excludeID string) ([]*models.Event, error) {
	var events []*models.Event
	err := r.db.WithContext(ctx).
		Select("id", "embedding", "embedding_snapshot", "created_at").
		Where("is_approved = ? AND embedding IS NOT NULL AND id <> ?", true, excludeID).
		Preload("Categories").
		Order("created_at DESC").
		Order("id DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list similarity candidates: %w", err)
	}
	return events, nil
}

// SaveEmbedding stores an event's vector and snapshot ID. A nil vector clears it.
func (r *EventRepositoryImpl) SaveEmbedding(ctx context.Context, id string, vector []float64, snapshot string) error {
	var value any = gorm.Expr("NULL")
	if len(vector) > 0 {
		value = pq.Float64Array(vector)
	}

	err := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"embedding":          value,
			"embedding_snapshot": snapshot,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
