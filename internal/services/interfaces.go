package services

import (
	"context"
	"time"

	"github.com/sudanchapagain/event-booking-system/internal/models"
	"github.com/sudanchapagain/event-booking-system/internal/payment"
)

// Interfaces live with their consumer. Repositories in internal/repository
// return concrete types that satisfy these implicitly.

// EventIndex is the storage the similarity engine reads and writes
type EventIndex interface {
	ListApprovedForIndexing(ctx context.Context) ([]*models.Event, error)
	ListSimilarityCandidates(ctx context.Context, excludeID string) ([]*models.Event, error)
	SaveEmbedding(ctx context.Context, id string, vector []float64, snapshot string) error
	GetByIDs(ctx context.Context, ids []string) ([]*models.Event, error)
}

// RankCache stores ranked similar-event IDs
type RankCache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, ids []string, ttl time.Duration) error
}

// EventRepository defines what the event service needs from event storage
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	GetBySlug(ctx context.Context, slug string) (*models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	Update(ctx context.Context, event *models.Event, changes *models.EventChanges) error
	Delete(ctx context.Context, id string) error
	SetApproved(ctx context.Context, id string, approved bool) error
	Explore(ctx context.Context, filter *models.EventFilter, now time.Time) ([]*models.Event, int64, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]*models.Category, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Category, error)
	GetOrCreate(ctx context.Context, name, slug string) (*models.Category, error)
}

type BookingRepository interface {
	GetAttendance(ctx context.Context, userID, eventID string) (*models.Attendance, error)
	CreateAttendance(ctx context.Context, attendance *models.Attendance) error
	SavePending(ctx context.Context, userID, eventID, phone string) (*models.Attendance, error)
	DeletePending(ctx context.Context, userID, eventID string) error
	ConfirmPayment(ctx context.Context, sale *models.TicketSale) error
	SetStatus(ctx context.Context, id string, status models.AttendanceStatus) error
	DeleteAttendance(ctx context.Context, id string) error
	ConfirmedCount(ctx context.Context, eventID string) (int64, error)
}

type DashboardRepository interface {
	Overview(ctx context.Context, organizerID *string) (*models.DashboardOverview, error)
	Bookings(ctx context.Context, organizerID *string, eventID string, limit, offset int) ([]*models.Attendance, int64, error)
	Sales(ctx context.Context, organizerID *string, latest int) (*models.SalesReport, error)
	PendingEvents(ctx context.Context) ([]*models.Event, error)
	AllEvents(ctx context.Context, limit, offset int) ([]*models.Event, int64, error)
}

// PaymentGateway is the external e-payment provider
type PaymentGateway interface {
	Initiate(ctx context.Context, req *payment.InitiateRequest) (*payment.InitiateResponse, error)
	Lookup(ctx context.Context, pidx string) (*payment.LookupResponse, error)
}

// LiveNotifier pushes messages to connected WebSocket clients
type LiveNotifier interface {
	Publish(room string, msg *models.LiveMessage)
}

// RebuildTrigger requests an asynchronous global embedding rebuild
type RebuildTrigger interface {
	Trigger(reason string) bool
}

// Embedder performs the global rebuild
type Embedder interface {
	RebuildAllEmbeddings(ctx context.Context) (int, error)
}
