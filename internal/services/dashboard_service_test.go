package services

import (
	"context"
	"testing"

	apperrors "github.com/sudanchapagain/event-booking-system/internal/errors"
	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type dashboardFixture struct {
	dashboard *mockDashboardRepo
	events    *mockEventRepo
	trigger   *countingTrigger
	notifier  *recordingNotifier
	svc       *DashboardServiceImpl
}

func newDashboardFixture() *dashboardFixture {
	f := &dashboardFixture{
		dashboard: &mockDashboardRepo{},
		events:    &mockEventRepo{},
		trigger:   &countingTrigger{},
		notifier:  &recordingNotifier{},
	}
	f.svc = NewDashboardService(f.dashboard, f.events, f.trigger, f.notifier, testLogger())
	return f
}

func admin() *models.User {
	return &models.User{ID: "admin1", IsSiteAdmin: true}
}

func TestOverviewScope(t *testing.T) {
	f := newDashboardFixture()
	f.dashboard.On("Overview", mock.Anything, mock.MatchedBy(func(id *string) bool {
		return id != nil && *id == "org1"
	})).Return(&models.DashboardOverview{TotalEvents: 2}, nil)
	f.dashboard.On("Overview", mock.Anything, (*string)(nil)).Return(&models.DashboardOverview{TotalEvents: 9}, nil)

	mine, err := f.svc.Overview(context.Background(), organizer())
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.TotalEvents)

	all, err := f.svc.Overview(context.Background(), admin())
	require.NoError(t, err)
	assert.Equal(t, int64(9), all.TotalEvents)

	_, err = f.svc.Overview(context.Background(), &models.User{ID: "plain"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.svc.Overview(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestBookingsPaging(t *testing.T) {
	f := newDashboardFixture()
	f.dashboard.On("Bookings", mock.Anything, (*string)(nil), "evt1", DashboardPageSize, DashboardPageSize).
		Return([]*models.Attendance{{ID: "a1"}}, int64(21), nil)

	page, err := f.svc.Bookings(context.Background(), admin(), "evt1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Pages)
	assert.Len(t, page.Bookings, 1)
}

func TestModerationIsAdminOnly(t *testing.T) {
	f := newDashboardFixture()

	_, err := f.svc.Moderation(context.Background(), organizer())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.svc.Approve(context.Background(), organizer(), "evt1")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	f.events.AssertNotCalled(t, "SetApproved", mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveTriggersRebuild(t *testing.T) {
	f := newDashboardFixture()
	f.events.On("SetApproved", mock.Anything, "evt1", true).Return(nil)
	f.events.On("GetByID", mock.Anything, "evt1").Return(&models.Event{ID: "evt1", Title: "Jazz Night", Slug: "jazz-night", IsApproved: true}, nil)

	event, err := f.svc.Approve(context.Background(), admin(), "evt1")
	require.NoError(t, err)
	assert.True(t, event.IsApproved)
	assert.Equal(t, []string{"event approved"}, f.trigger.Reasons())

	room, msg := f.notifier.last()
	assert.Equal(t, models.GlobalRoom, room)
	assert.Equal(t, models.LiveEventApproved, msg.Type)
	assert.Equal(t, "jazz-night", msg.Data["slug"])
}

func TestRejectDeletesSubmission(t *testing.T) {
	f := newDashboardFixture()
	f.events.On("GetByID", mock.Anything, "evt1").Return(&models.Event{ID: "evt1", Title: "Spam"}, nil)
	f.events.On("Delete", mock.Anything, "evt1").Return(nil)

	event, err := f.svc.Reject(context.Background(), admin(), "evt1")
	require.NoError(t, err)
	assert.Equal(t, "Spam", event.Title)
	assert.Empty(t, f.trigger.Reasons(), "unapproved events were never indexed")
	f.events.AssertExpectations(t)
}
