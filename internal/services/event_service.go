package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/sudanchapagain/event-booking-system/internal/errors"
	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	ExplorePageSize    = 12
	DetailSimilarLimit = 4
)

// SimilarFinder answers related-event queries
type SimilarFinder interface {
	GetSimilarEvents(ctx context.Context, event *models.Event, limit int) ([]*models.Event, error)
}

// EventDetail is an event as shown on its own page
type EventDetail struct {
	Event         *models.Event     `json:"event"`
	SimilarEvents []*models.Event   `json:"similar_events"`
	IsOwner       bool              `json:"is_owner"`
	NextDate      *models.EventDate `json:"next_date"`
}

// EventServiceImpl handles publishing, editing and browsing events
type EventServiceImpl struct {
	events     EventRepository
	categories CategoryRepository
	similar    SimilarFinder
	rebuild    RebuildTrigger
	log        *logrus.Entry
	now        func() time.Time
}

func NewEventService(
	events EventRepository,
	categories CategoryRepository,
	similar SimilarFinder,
	rebuild RebuildTrigger,
	log *logrus.Entry,
) *EventServiceImpl {
	return &EventServiceImpl{
		events:     events,
		categories: categories,
		similar:    similar,
		rebuild:    rebuild,
		log:        log,
		now:        time.Now,
	}
}

func (s *EventServiceImpl) Categories(ctx context.Context) ([]*models.Category, error) {
	return s.categories.List(ctx)
}

// Create submits a new event for moderation
func (s *EventServiceImpl) Create(ctx context.Context, user *models.User, in *models.EventCreate) (*models.Event, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	title := strings.TrimSpace(in.Title)
	location := strings.TrimSpace(in.Location)
	if title == "" {
		return nil, apperrors.NewValidationError("title", "title is required")
	}
	if location == "" {
		return nil, apperrors.NewValidationError("location", "location is required")
	}
	if err := validateAmounts(in.Capacity, in.TicketPrice); err != nil {
		return nil, err
	}
	if len(in.Dates) == 0 {
		return nil, apperrors.NewValidationError("dates", "at least one date is required")
	}
	dates, err := buildDates(in.Dates)
	if err != nil {
		return nil, err
	}

	categories, err := s.resolveCategories(ctx, in.CategoryIDs, in.NewCategories)
	if err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, title)
	if err != nil {
		return nil, err
	}

	organizerID := user.ID
	event := &models.Event{
		Title:       title,
		Slug:        slug,
		Location:    location,
		Description: strings.TrimSpace(in.Description),
		OrganizerID: &organizerID,
		Capacity:    in.Capacity,
		TicketPrice: in.TicketPrice,
		Categories:  categories,
		Dates:       dates,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"event": event.ID, "slug": slug, "organizer": user.ID}).Info("Event submitted")
	s.rebuild.Trigger("event created")

	return s.events.GetByID(ctx, event.ID)
}

// Update edits an event owned by user (or any event for admins). Past dates
// are always dropped; supplied dates replace the upcoming ones.
func (s *EventServiceImpl) Update(ctx context.Context, user *models.User, slug string, in *models.EventUpdate) (*models.Event, error) {
	event, err := s.editable(ctx, user, slug)
	if err != nil {
		return nil, err
	}

	changes := &models.EventChanges{Fields: map[string]any{}, Now: s.now()}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title", "title is required")
		}
		changes.Fields["title"] = title
	}
	if in.Location != nil {
		location := strings.TrimSpace(*in.Location)
		if location == "" {
			return nil, apperrors.NewValidationError("location", "location is required")
		}
		changes.Fields["location"] = location
	}
	if in.Description != nil {
		changes.Fields["description"] = strings.TrimSpace(*in.Description)
	}

	capacity, price := event.Capacity, event.TicketPrice
	if in.Capacity != nil {
		capacity = *in.Capacity
		changes.Fields["capacity"] = capacity
	}
	if in.TicketPrice != nil {
		price = *in.TicketPrice
		changes.Fields["ticket_price"] = price
	}
	if err := validateAmounts(capacity, price); err != nil {
		return nil, err
	}

	switch {
	case in.CategoryIDs != nil:
		changes.Categories, err = s.resolveCategories(ctx, in.CategoryIDs, in.NewCategories)
	case len(in.NewCategories) > 0:
		changes.Categories, err = s.resolveCategories(ctx, event.CategoryIDs(), in.NewCategories)
	}
	if err != nil {
		return nil, err
	}

	if in.Dates != nil {
		if changes.Dates, err = buildDates(in.Dates); err != nil {
			return nil, err
		}
	}

	if err := s.events.Update(ctx, event, changes); err != nil {
		return nil, err
	}

	s.log.WithField("event", event.ID).Info("Event updated")
	s.rebuild.Trigger("event updated")

	return s.events.GetByID(ctx, event.ID)
}

func (s *EventServiceImpl) Delete(ctx context.Context, user *models.User, slug string) error {
	event, err := s.editable(ctx, user, slug)
	if err != nil {
		return err
	}
	if err := s.events.Delete(ctx, event.ID); err != nil {
		return err
	}

	s.log.WithField("event", event.ID).Info("Event deleted")
	if event.IsApproved {
		s.rebuild.Trigger("event deleted")
	}
	return nil
}

// Get returns an event visible to viewer. Unapproved events are visible to
// their organizer and to admins only.
func (s *EventServiceImpl) Get(ctx context.Context, viewer *models.User, slug string) (*models.Event, error) {
	event, err := s.events.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !event.IsApproved && !viewer.IsAdmin() && !event.OwnedBy(viewer) {
		return nil, apperrors.NewNotFoundError("event", slug)
	}
	return event, nil
}

// Detail loads an event with its related events. Failing to rank related
// events does not fail the page.
func (s *EventServiceImpl) Detail(ctx context.Context, viewer *models.User, slug string) (*EventDetail, error) {
	event, err := s.Get(ctx, viewer, slug)
	if err != nil {
		return nil, err
	}

	similar, err := s.similar.GetSimilarEvents(ctx, event, DetailSimilarLimit)
	if err != nil {
		s.log.WithError(err).WithField("event", event.ID).Warn("Failed to load similar events")
		similar = nil
	}
	if similar == nil {
		similar = []*models.Event{}
	}

	return &EventDetail{
		Event:         event,
		SimilarEvents: similar,
		IsOwner:       event.OwnedBy(viewer),
		NextDate:      event.NextDate(s.now()),
	}, nil
}

// Similar returns up to limit related events for a visible event
func (s *EventServiceImpl) Similar(ctx context.Context, viewer *models.User, slug string, limit int) ([]*models.Event, error) {
	event, err := s.Get(ctx, viewer, slug)
	if err != nil {
		return nil, err
	}
	return s.similar.GetSimilarEvents(ctx, event, limit)
}

// Explore lists one page of approved events matching filter
func (s *EventServiceImpl) Explore(ctx context.Context, filter *models.EventFilter, page int) (*models.EventPage, error) {
	if page < 1 {
		page = 1
	}
	filter.Limit = ExplorePageSize
	filter.Offset = (page - 1) * ExplorePageSize

	events, total, err := s.events.Explore(ctx, filter, s.now())
	if err != nil {
		return nil, err
	}
	return models.NewEventPage(events, total, page, ExplorePageSize), nil
}

func (s *EventServiceImpl) editable(ctx context.Context, user *models.User, slug string) (*models.Event, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	event, err := s.events.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !event.OwnedBy(user) && !user.IsAdmin() {
		return nil, fmt.Errorf("%w: only the organizer can change this event", apperrors.ErrForbidden)
	}
	return event, nil
}

// uniqueSlug appends -1, -2, ... until the slug is free
func (s *EventServiceImpl) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "event"
	}
	slug := base
	for i := 1; ; i++ {
		taken, err := s.events.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(i)
	}
}

// resolveCategories loads the selected categories and gets-or-creates the
// newly named ones, without duplicates.
func (s *EventServiceImpl) resolveCategories(ctx context.Context, ids []string, names []string) ([]models.Category, error) {
	categories, err := s.categories.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		seen[c.ID] = true
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		slug := Slugify(name)
		if slug == "" {
			return nil, apperrors.NewValidationError("new_categories", fmt.Sprintf("category %q has no usable characters", name))
		}
		c, err := s.categories.GetOrCreate(ctx, name, slug)
		if err != nil {
			return nil, err
		}
		if !seen[c.ID] {
			seen[c.ID] = true
			categories = append(categories, *c)
		}
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func validateAmounts(capacity int, price int64) error {
	if capacity < 0 {
		return apperrors.NewValidationError("capacity", "capacity must not be negative")
	}
	if price < 0 {
		return apperrors.NewValidationError("ticket_price", "ticket price must not be negative")
	}
	return nil
}

func buildDates(in []models.EventDateInput) ([]models.EventDate, error) {
	dates := make([]models.EventDate, 0, len(in))
	for _, d := range in {
		if d.StartDate.IsZero() || d.EndDate.IsZero() {
			return nil, apperrors.NewValidationError("dates", "start and end dates are required")
		}
		if d.EndDate.Before(d.StartDate) {
			return nil, apperrors.NewValidationError("dates", "end date must not be before start date")
		}
		dates = append(dates, models.EventDate{StartDate: d.StartDate, EndDate: d.EndDate})
	}
	return dates, nil
}
