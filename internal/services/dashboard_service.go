package services

import (
	"context"
	"time"

	apperrors "github.com/sudanchapagain/event-booking-system/internal/errors"
	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	DashboardPageSize = 20
	LatestSalesLimit  = 20
)

// DashboardServiceImpl backs the organizer dashboard and admin moderation
type DashboardServiceImpl struct {
	dashboard DashboardRepository
	events    EventRepository
	rebuild   RebuildTrigger
	notifier  LiveNotifier
	log       *logrus.Entry
}

func NewDashboardService(
	dashboard DashboardRepository,
	events EventRepository,
	rebuild RebuildTrigger,
	notifier LiveNotifier,
	log *logrus.Entry,
) *DashboardServiceImpl {
	return &DashboardServiceImpl{
		dashboard: dashboard,
		events:    events,
		rebuild:   rebuild,
		notifier:  notifier,
		log:       log,
	}
}

// scope returns the organizer filter: admins see every event
func scope(user *models.User) (*string, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if !user.CanOrganize() {
		return nil, apperrors.ErrForbidden
	}
	if user.IsAdmin() {
		return nil, nil
	}
	id := user.ID
	return &id, nil
}

func requireAdmin(user *models.User) error {
	if user == nil {
		return apperrors.ErrUnauthenticated
	}
	if !user.IsAdmin() {
		return apperrors.ErrForbidden
	}
	return nil
}

func pageOffset(page int) (int, int) {
	if page < 1 {
		page = 1
	}
	return page, (page - 1) * DashboardPageSize
}

func pageCount(total int64) int {
	return int((total + DashboardPageSize - 1) / DashboardPageSize)
}

func (s *DashboardServiceImpl) Overview(ctx context.Context, user *models.User) (*models.DashboardOverview, error) {
	organizerID, err := scope(user)
	if err != nil {
		return nil, err
	}
	return s.dashboard.Overview(ctx, organizerID)
}

func (s *DashboardServiceImpl) Bookings(ctx context.Context, user *models.User, eventID string, page int) (*models.BookingPage, error) {
	organizerID, err := scope(user)
	if err != nil {
		return nil, err
	}
	page, offset := pageOffset(page)

	bookings, total, err := s.dashboard.Bookings(ctx, organizerID, eventID, DashboardPageSize, offset)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []*models.Attendance{}
	}
	return &models.BookingPage{Bookings: bookings, Total: total, Page: page, Pages: pageCount(total)}, nil
}

func (s *DashboardServiceImpl) Sales(ctx context.Context, user *models.User) (*models.SalesReport, error) {
	organizerID, err := scope(user)
	if err != nil {
		return nil, err
	}
	return s.dashboard.Sales(ctx, organizerID, LatestSalesLimit)
}

// Moderation lists events awaiting approval
func (s *DashboardServiceImpl) Moderation(ctx context.Context, user *models.User) ([]*models.Event, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	return s.dashboard.PendingEvents(ctx)
}

func (s *DashboardServiceImpl) Posts(ctx context.Context, user *models.User, page int) (*models.EventPage, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	page, offset := pageOffset(page)

	events, total, err := s.dashboard.AllEvents(ctx, DashboardPageSize, offset)
	if err != nil {
		return nil, err
	}
	return models.NewEventPage(events, total, page, DashboardPageSize), nil
}

// Approve publishes an event and queues a rebuild so it gains an embedding
func (s *DashboardServiceImpl) Approve(ctx context.Context, user *models.User, eventID string) (*models.Event, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	if err := s.events.SetApproved(ctx, eventID, true); err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"event": event.ID, "admin": user.ID}).Info("Event approved")
	s.rebuild.Trigger("event approved")
	if s.notifier != nil {
		s.notifier.Publish(models.GlobalRoom, &models.LiveMessage{
			Type:    models.LiveEventApproved,
			EventID: event.ID,
			Data:    map[string]any{"title": event.Title, "slug": event.Slug},
			SentAt:  time.Now(),
		})
	}
	return event, nil
}

// Reject deletes a submission
func (s *DashboardServiceImpl) Reject(ctx context.Context, user *models.User, eventID string) (*models.Event, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.events.Delete(ctx, event.ID); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"event": event.ID, "admin": user.ID}).Info("Event rejected")
	if event.IsApproved {
		s.rebuild.Trigger("event rejected")
	}
	return event, nil
}
