package models

import (
	"time"

	"github.com/sudanchapagain/event-booking-system/internal/similarity"

	"github.com/lib/pq"
	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Category groups events by topic
type Category struct {
	ID   string `json:"id" gorm:"type:char(27);primaryKey"`
	Name string `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Slug string `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
}

// BeforeCreate hook generates KSUID before inserting
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = ksuid.New().String()
	}
	return nil
}

// Event is a listing published by an organizer.
// Embedding is the TF-IDF vector from the last rebuild, one entry per
// vocabulary term, so its length is unbounded. It is only comparable with
// embeddings carrying the same EmbeddingSnapshot, which names the rebuild pass.
type Event struct {
	ID          string     `json:"id" gorm:"type:char(27);primaryKey"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	Slug        string     `json:"slug" gorm:"type:varchar(255);uniqueIndex;not null"`
	Location    string     `json:"location" gorm:"type:varchar(255);not null;index"`
	Description string     `json:"description" gorm:"type:text"`
	OrganizerID *string    `json:"organizer_id" gorm:"type:char(27);index:idx_events_organizer_approved"`
	Organizer   *User      `json:"organizer,omitempty" gorm:"foreignKey:OrganizerID;constraint:OnDelete:SET NULL"`
	Capacity    int        `json:"capacity" gorm:"not null;default:0"` // 0 means unlimited
	TicketPrice int64      `json:"ticket_price" gorm:"not null;default:0"` // paisa
	Categories  []Category `json:"categories" gorm:"many2many:event_categories;constraint:OnDelete:CASCADE"`
	Dates       []EventDate `json:"dates" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	IsApproved  bool       `json:"is_approved" gorm:"not null;default:false;index:idx_events_approved_created;index:idx_events_organizer_approved"`

	Embedding         pq.Float64Array `json:"-" gorm:"type:float8[]"`
	EmbeddingSnapshot string          `json:"-" gorm:"type:varchar(64)"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;index:idx_events_approved_created,sort:desc"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`

	// Populated by queries that aggregate attendances
	ConfirmedCount int64 `json:"confirmed_count" gorm:"->;-:migration"`
}

// BeforeCreate hook generates KSUID before inserting
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = ksuid.New().String()
	}
	return nil
}

// EventDate is one scheduled occurrence of an event
type EventDate struct {
	ID        string    `json:"id" gorm:"type:char(27);primaryKey"`
	EventID   string    `json:"event_id" gorm:"type:char(27);not null;index:idx_event_dates_start;index:idx_event_dates_end"`
	StartDate time.Time `json:"start_date" gorm:"not null;index:idx_event_dates_start"`
	EndDate   time.Time `json:"end_date" gorm:"not null;index:idx_event_dates_end"`
}

// BeforeCreate hook generates KSUID before inserting
func (d *EventDate) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = ksuid.New().String()
	}
	return nil
}

func (e *Event) IsFree() bool {
	return e.TicketPrice == 0
}

// AvailableSpots returns the remaining capacity; ok is false for unlimited events.
func (e *Event) AvailableSpots() (spots int64, ok bool) {
	if e.Capacity == 0 {
		return 0, false
	}
	return max(0, int64(e.Capacity)-e.ConfirmedCount), true
}

func (e *Event) IsSoldOut() bool {
	spots, limited := e.AvailableSpots()
	return limited && spots == 0
}

// NextDate is the earliest date starting at or after now, or nil.
func (e *Event) NextDate(now time.Time) *EventDate {
	var next *EventDate
	for i := range e.Dates {
		d := &e.Dates[i]
		if d.StartDate.Before(now) {
			continue
		}
		if next == nil || d.StartDate.Before(next.StartDate) {
			next = d
		}
	}
	return next
}

// OwnedBy is nil-safe on both sides
func (e *Event) OwnedBy(u *User) bool {
	return u != nil && e.OrganizerID != nil && *e.OrganizerID == u.ID
}

// CategoryIDs lists the IDs of the loaded categories
func (e *Event) CategoryIDs() []string {
	ids := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		ids[i] = c.ID
	}
	return ids
}

// SimilarityFields exposes the text used for related-event ranking
func (e *Event) SimilarityFields() similarity.Fields {
	names := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		names[i] = c.Name
	}
	return similarity.Fields{
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Categories:  names,
	}
}

// EmbeddingVector returns the stored vector, or nil when there is none
func (e *Event) EmbeddingVector() []float64 {
	if len(e.Embedding) == 0 {
		return nil
	}
	return e.Embedding
}

// SimilarityCandidate adapts the event for the ranker
func (e *Event) SimilarityCandidate() similarity.Candidate {
	return similarity.Candidate{
		ID:         e.ID,
		Vector:     e.EmbeddingVector(),
		Snapshot:   e.EmbeddingSnapshot,
		Categories: e.CategoryIDs(),
	}
}

type EventDateInput struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type EventCreate struct {
	Title         string           `json:"title"`
	Location      string           `json:"location"`
	Description   string           `json:"description"`
	Capacity      int              `json:"capacity"`
	TicketPrice   int64            `json:"ticket_price"`
	CategoryIDs   []string         `json:"category_ids"`
	NewCategories []string         `json:"new_categories"`
	Dates         []EventDateInput `json:"dates"`
}

type EventUpdate struct {
	Title         *string          `json:"title,omitempty"`
	Location      *string          `json:"location,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Capacity      *int             `json:"capacity,omitempty"`
	TicketPrice   *int64           `json:"ticket_price,omitempty"`
	CategoryIDs   []string         `json:"category_ids,omitempty"`
	NewCategories []string         `json:"new_categories,omitempty"`
	Dates         []EventDateInput `json:"dates,omitempty"`
}

// EventFilter holds explore-page query parameters
type EventFilter struct {
	Search     string
	Location   string
	Categories []string // slugs or IDs
	MinPrice   *int64
	MaxPrice   *int64
	FreeOnly   bool
	DateFrom   *time.Time
	DateTo     *time.Time // exclusive
	Limit      int
	Offset     int
}

// EventChanges is a validated update ready to be persisted.
// Nil Categories leaves categories untouched; nil Dates keeps upcoming dates.
type EventChanges struct {
	Fields     map[string]any
	Categories []Category
	Dates      []EventDate
	Now        time.Time
}

// EventPage is one page of an event listing
type EventPage struct {
	Events []*Event `json:"events"`
	Total  int64    `json:"total"`
	Page   int      `json:"page"`
	Pages  int      `json:"pages"`
}

// NewEventPage computes the page count for size-limited listings
func NewEventPage(events []*Event, total int64, page, size int) *EventPage {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	if events == nil {
		events = []*Event{}
	}
	return &EventPage{Events: events, Total: total, Page: page, Pages: pages}
}
