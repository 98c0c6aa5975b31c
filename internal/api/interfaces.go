package api

import (
	"context"
	"net/http"

	"github.com/sudanchapagain/event-booking-system/internal/models"
	"github.com/sudanchapagain/event-booking-system/internal/services"
)

// Handlers consume these; implementations live in internal/services and
// internal/live.

type EventService interface {
	Categories(ctx context.Context) ([]*models.Category, error)
	Create(ctx context.Context, user *models.User, in *models.EventCreate) (*models.Event, error)
	Update(ctx context.Context, user *models.User, slug string, in *models.EventUpdate) (*models.Event, error)
	Delete(ctx context.Context, user *models.User, slug string) error
	Detail(ctx context.Context, viewer *models.User, slug string) (*services.EventDetail, error)
	Similar(ctx context.Context, viewer *models.User, slug string, limit int) ([]*models.Event, error)
	Explore(ctx context.Context, filter *models.EventFilter, page int) (*models.EventPage, error)
}

type BookingService interface {
	Book(ctx context.Context, user *models.User, slug, phone string) (*services.BookingResult, error)
	ValidatePayment(ctx context.Context, user *models.User, pidx, status, orderID string) (*models.Event, error)
	Cancel(ctx context.Context, user *models.User, slug string) error
}

type DashboardService interface {
	Overview(ctx context.Context, user *models.User) (*models.DashboardOverview, error)
	Bookings(ctx context.Context, user *models.User, eventID string, page int) (*models.BookingPage, error)
	Sales(ctx context.Context, user *models.User) (*models.SalesReport, error)
	Moderation(ctx context.Context, user *models.User) ([]*models.Event, error)
	Posts(ctx context.Context, user *models.User, page int) (*models.EventPage, error)
	Approve(ctx context.Context, user *models.User, eventID string) (*models.Event, error)
	Reject(ctx context.Context, user *models.User, eventID string) (*models.Event, error)
}

// EmbeddingRebuilder runs or queues the global embedding rebuild
type EmbeddingRebuilder interface {
	Trigger(reason string) bool
	RunNow(ctx context.Context) (int, error)
	GetQueueLength() int
}

// LiveHandler serves WebSocket subscriptions
type LiveHandler interface {
	HandleEventConnection(w http.ResponseWriter, r *http.Request)
	HandleUpdatesConnection(w http.ResponseWriter, r *http.Request)
}
