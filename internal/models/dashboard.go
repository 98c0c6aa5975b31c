package models

// DashboardOverview summarises the events visible to an organizer or admin
type DashboardOverview struct {
	TotalEvents      int64    `json:"total_events"`
	ApprovedEvents   int64    `json:"approved_events"`
	PendingEvents    int64    `json:"pending_events"`
	TotalRevenue     int64    `json:"total_revenue"`
	TotalTicketsSold int64    `json:"total_tickets_sold"`
	TotalAttendees   int64    `json:"total_attendees"`
	RecentEvents     []*Event `json:"recent_events"`
}

// EventSales aggregates sales for one event
type EventSales struct {
	EventID       string `json:"event_id"`
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	TotalRevenue  int64  `json:"total_revenue"`
	TicketsSold   int64  `json:"tickets_sold"`
	AttendeeCount int64  `json:"attendee_count"`
}

type SalesReport struct {
	Events          []EventSales  `json:"event_sales"`
	TotalRevenue    int64         `json:"total_revenue"`
	TotalSales      int64         `json:"total_sales"`
	EventsWithSales int64         `json:"events_with_sales"`
	LatestSales     []*TicketSale `json:"sales"`
}

type BookingPage struct {
	Bookings []*Attendance `json:"bookings"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	Pages    int           `json:"pages"`
}
