package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sudanchapagain/event-booking-system/internal/models"
	"github.com/sudanchapagain/event-booking-system/internal/payment"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type mockEventIndex struct{ mock.Mock }

func (m *mockEventIndex) ListApprovedForIndexing(ctx context.Context) ([]*models.Event, error) {
	args := m.Called(ctx)
	events, _ := args.Get(0).([]*models.Event)
	return events, args.Error(1)
}

func (m *mockEventIndex) ListSimilarityCandidates(ctx context.Context, excludeID string) ([]*models.Event, error) {
	args := m.Called(ctx, excludeID)
	events, _ := args.Get(0).([]*models.Event)
	return events, args.Error(1)
}

func (m *mockEventIndex) SaveEmbedding(ctx context.Context, id string, vector []float64, snapshot string) error {
	return m.Called(ctx, id, vector, snapshot).Error(0)
}

func (m *mockEventIndex) GetByIDs(ctx context.Context, ids []string) ([]*models.Event, error) {
	args := m.Called(ctx, ids)
	events, _ := args.Get(0).([]*models.Event)
	return events, args.Error(1)
}

// memoryCache is an in-process RankCache
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]string{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids, ok := c.data[key]
	return ids, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, ids []string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = ids
	return nil
}

type mockEventRepo struct{ mock.Mock }

func (m *mockEventRepo) Create(ctx context.Context, event *models.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockEventRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockEventRepo) GetBySlug(ctx context.Context, slug string) (*models.Event, error) {
	args := m.Called(ctx, slug)
	event, _ := args.Get(0).(*models.Event)
	return event, args.Error(1)
}

func (m *mockEventRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	event, _ := args.Get(0).(*models.Event)
	return event, args.Error(1)
}

func (m *mockEventRepo) Update(ctx context.Context, event *models.Event, changes *models.EventChanges) error {
	return m.Called(ctx, event, changes).Error(0)
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockEventRepo) SetApproved(ctx context.Context, id string, approved bool) error {
	return m.Called(ctx, id, approved).Error(0)
}

func (m *mockEventRepo) Explore(ctx context.Context, filter *models.EventFilter, now time.Time) ([]*models.Event, int64, error) {
	args := m.Called(ctx, filter, now)
	events, _ := args.Get(0).([]*models.Event)
	return events, args.Get(1).(int64), args.Error(2)
}

type mockCategoryRepo struct{ mock.Mock }

func (m *mockCategoryRepo) List(ctx context.Context) ([]*models.Category, error) {
	args := m.Called(ctx)
	categories, _ := args.Get(0).([]*models.Category)
	return categories, args.Error(1)
}

func (m *mockCategoryRepo) GetByIDs(ctx context.Context, ids []string) ([]models.Category, error) {
	args := m.Called(ctx, ids)
	categories, _ := args.Get(0).([]models.Category)
	return categories, args.Error(1)
}

func (m *mockCategoryRepo) GetOrCreate(ctx context.Context, name, slug string) (*models.Category, error) {
	args := m.Called(ctx, name, slug)
	category, _ := args.Get(0).(*models.Category)
	return category, args.Error(1)
}

type mockBookingRepo struct{ mock.Mock }

func (m *mockBookingRepo) GetAttendance(ctx context.Context, userID, eventID string) (*models.Attendance, error) {
	args := m.Called(ctx, userID, eventID)
	attendance, _ := args.Get(0).(*models.Attendance)
	return attendance, args.Error(1)
}

func (m *mockBookingRepo) CreateAttendance(ctx context.Context, attendance *models.Attendance) error {
	return m.Called(ctx, attendance).Error(0)
}

func (m *mockBookingRepo) SavePending(ctx context.Context, userID, eventID, phone string) (*models.Attendance, error) {
	args := m.Called(ctx, userID, eventID, phone)
	attendance, _ := args.Get(0).(*models.Attendance)
	return attendance, args.Error(1)
}

func (m *mockBookingRepo) DeletePending(ctx context.Context, userID, eventID string) error {
	return m.Called(ctx, userID, eventID).Error(0)
}

func (m *mockBookingRepo) ConfirmPayment(ctx context.Context, sale *models.TicketSale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *mockBookingRepo) SetStatus(ctx context.Context, id string, status models.AttendanceStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockBookingRepo) DeleteAttendance(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBookingRepo) ConfirmedCount(ctx context.Context, eventID string) (int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Error(1)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Initiate(ctx context.Context, req *payment.InitiateRequest) (*payment.InitiateResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*payment.InitiateResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) Lookup(ctx context.Context, pidx string) (*payment.LookupResponse, error) {
	args := m.Called(ctx, pidx)
	resp, _ := args.Get(0).(*payment.LookupResponse)
	return resp, args.Error(1)
}

type mockDashboardRepo struct{ mock.Mock }

func (m *mockDashboardRepo) Overview(ctx context.Context, organizerID *string) (*models.DashboardOverview, error) {
	args := m.Called(ctx, organizerID)
	overview, _ := args.Get(0).(*models.DashboardOverview)
	return overview, args.Error(1)
}

func (m *mockDashboardRepo) Bookings(ctx context.Context, organizerID *string, eventID string, limit, offset int) ([]*models.Attendance, int64, error) {
	args := m.Called(ctx, organizerID, eventID, limit, offset)
	bookings, _ := args.Get(0).([]*models.Attendance)
	return bookings, args.Get(1).(int64), args.Error(2)
}

func (m *mockDashboardRepo) Sales(ctx context.Context, organizerID *string, latest int) (*models.SalesReport, error) {
	args := m.Called(ctx, organizerID, latest)
	report, _ := args.Get(0).(*models.SalesReport)
	return report, args.Error(1)
}

func (m *mockDashboardRepo) PendingEvents(ctx context.Context) ([]*models.Event, error) {
	args := m.Called(ctx)
	events, _ := args.Get(0).([]*models.Event)
	return events, args.Error(1)
}

func (m *mockDashboardRepo) AllEvents(ctx context.Context, limit, offset int) ([]*models.Event, int64, error) {
	args := m.Called(ctx, limit, offset)
	events, _ := args.Get(0).([]*models.Event)
	return events, args.Get(1).(int64), args.Error(2)
}

// recordingNotifier captures published live messages
type recordingNotifier struct {
	mu       sync.Mutex
	rooms    []string
	messages []*models.LiveMessage
}

func (n *recordingNotifier) Publish(room string, msg *models.LiveMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rooms = append(n.rooms, room)
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func (n *recordingNotifier) last() (string, *models.LiveMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return "", nil
	}
	return n.rooms[len(n.rooms)-1], n.messages[len(n.messages)-1]
}

// countingTrigger records rebuild requests
type countingTrigger struct {
	mu      sync.Mutex
	reasons []string
}

func (t *countingTrigger) Trigger(reason string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reasons = append(t.reasons, reason)
	return true
}

func (t *countingTrigger) Reasons() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.reasons...)
}
