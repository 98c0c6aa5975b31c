package repository

import (
	"context"
	"fmt"

	"github.com/sudanchapagain/event-booking-system/internal/models"

	"gorm.io/gorm"
)

// DashboardRepositoryImpl runs the aggregate queries behind the organizer
// dashboard. A nil organizerID scopes queries to every event.
type DashboardRepositoryImpl struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepositoryImpl {
	return &DashboardRepositoryImpl{db: db}
}

func (r *DashboardRepositoryImpl) scopedEvents(ctx context.Context, organizerID *string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Event{})
	if organizerID != nil {
		q = q.Where("events.organizer_id = ?", *organizerID)
	}
	return q
}

// eventIDs is a subquery of event IDs in scope
func (r *DashboardRepositoryImpl) eventIDs(ctx context.Context, organizerID *string) *gorm.DB {
	return r.scopedEvents(ctx, organizerID).Select("events.id")
}

func (r *DashboardRepositoryImpl) Overview(ctx context.Context, organizerID *string) (*models.DashboardOverview, error) {
	overview := &models.DashboardOverview{}

	var counts struct {
		Total    int64
		Approved int64
	}
	err := r.scopedEvents(ctx, organizerID).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE is_approved) AS approved").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	overview.TotalEvents = counts.Total
	overview.ApprovedEvents = counts.Approved
	overview.PendingEvents = counts.Total - counts.Approved

	var sales struct {
		Revenue int64
		Tickets int64
	}
	err = r.db.WithContext(ctx).Model(&models.TicketSale{}).
		Select("COALESCE(SUM(total_price), 0) AS revenue, COALESCE(SUM(quantity), 0) AS tickets").
		Where("event_id IN (?)", r.eventIDs(ctx, organizerID)).
		Scan(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum sales: %w", err)
	}
	overview.TotalRevenue = sales.Revenue
	overview.TotalTicketsSold = sales.Tickets

	err = r.db.WithContext(ctx).Model(&models.Attendance{}).
		Where("status = ? AND event_id IN (?)", models.AttendanceConfirmed, r.eventIDs(ctx, organizerID)).
		Count(&overview.TotalAttendees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count attendees: %w", err)
	}

	err = r.scopedEvents(ctx, organizerID).
		Select(confirmedCountSelect).
		Preload("Categories", orderedCategories).
		Order("events.created_at DESC").
		Limit(5).
		Find(&overview.RecentEvents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent events: %w", err)
	}

	return overview, nil
}

// Bookings pages through bookings of in-scope events, newest first.
// An empty eventID lists all of them.
func (r *DashboardRepositoryImpl) Bookings(ctx context.Context, organizerID *string, eventID string, limit, offset int) ([]*models.Attendance, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Attendance{}).
		Where("event_id IN (?)", r.eventIDs(ctx, organizerID))
	if eventID != "" {
		q = q.Where("event_id = ?", eventID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var bookings []*models.Attendance
	err := q.
		Preload("User").
		Preload("Event").
		Order("registered_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, total, nil
}

// Sales reports revenue per event, highest first, plus the latest sales
func (r *DashboardRepositoryImpl) Sales(ctx context.Context, organizerID *string, latest int) (*models.SalesReport, error) {
	report := &models.SalesReport{}

	err := r.scopedEvents(ctx, organizerID).
		Select(`events.id AS event_id, events.title, events.slug,
			COALESCE((SELECT SUM(s.total_price) FROM ticket_sales s WHERE s.event_id = events.id), 0) AS total_revenue,
			COALESCE((SELECT SUM(s.quantity) FROM ticket_sales s WHERE s.event_id = events.id), 0) AS tickets_sold,
			(SELECT COUNT(*) FROM attendances a WHERE a.event_id = events.id AND a.status = 'confirmed') AS attendee_count`).
		Order("total_revenue DESC").
		Order("events.id").
		Scan(&report.Events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}

	for _, e := range report.Events {
		report.TotalRevenue += e.TotalRevenue
		report.TotalSales += e.TicketsSold
		if e.TicketsSold > 0 {
			report.EventsWithSales++
		}
	}

	err = r.db.WithContext(ctx).
		Where("event_id IN (?)", r.eventIDs(ctx, organizerID)).
		Preload("User").
		Preload("Event").
		Order("purchased_at DESC").
		Limit(latest).
		Find(&report.LatestSales).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	return report, nil
}

// PendingEvents lists events awaiting moderation, oldest submissions last
func (r *DashboardRepositoryImpl) PendingEvents(ctx context.Context) ([]*models.Event, error) {
	var events []*models.Event
	err := r.db.WithContext(ctx).
		Where("is_approved = ?", false).
		Preload("Organizer").
		Preload("Categories", orderedCategories).
		Order("created_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending events: %w", err)
	}
	return events, nil
}

// AllEvents pages through every event, newest first
func (r *DashboardRepositoryImpl) AllEvents(ctx context.Context, limit, offset int) ([]*models.Event, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Event{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	var events []*models.Event
	err := r.db.WithContext(ctx).
		Preload("Organizer").
		Preload("Categories", orderedCategories).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	return events, total, nil
}
