package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

type AttendanceStatus string

const (
	AttendanceConfirmed AttendanceStatus = "confirmed"
	AttendanceCancelled AttendanceStatus = "cancelled"
	AttendancePending   AttendanceStatus = "pending"
)

// Attendance is a user's booking for an event. Paid bookings stay pending
// until the gateway confirms the payment.
type Attendance struct {
	ID            string           `json:"id" gorm:"type:char(27);primaryKey"`
	UserID        string           `json:"user_id" gorm:"type:char(27);not null;uniqueIndex:idx_attendance_user_event"`
	User          *User            `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	EventID       string           `json:"event_id" gorm:"type:char(27);not null;uniqueIndex:idx_attendance_user_event;index:idx_attendance_event_status"`
	Event         *Event           `json:"event,omitempty" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Status        AttendanceStatus `json:"status" gorm:"type:varchar(20);not null;default:'confirmed';index:idx_attendance_event_status"`
	Reference     uuid.UUID        `json:"reference" gorm:"type:uuid;uniqueIndex;not null"`
	CheckoutPhone string           `json:"-" gorm:"type:varchar(10)"`
	RegisteredAt  time.Time        `json:"registered_at" gorm:"autoCreateTime"`
}

// BeforeCreate hook generates KSUID and booking reference before inserting
func (a *Attendance) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = ksuid.New().String()
	}
	if a.Reference == uuid.Nil {
		a.Reference = uuid.New()
	}
	return nil
}

// TicketSale records a completed payment
type TicketSale struct {
	ID            string    `json:"id" gorm:"type:char(27);primaryKey"`
	UserID        *string   `json:"user_id" gorm:"type:char(27);index"`
	User          *User     `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	EventID       string    `json:"event_id" gorm:"type:char(27);not null;index:idx_sales_event_purchased"`
	Event         *Event    `json:"event,omitempty" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Quantity      int       `json:"quantity" gorm:"not null;check:quantity >= 1"`
	TotalPrice    int64     `json:"total_price" gorm:"not null"` // paisa
	TransactionID string    `json:"transaction_id" gorm:"type:varchar(255)"`
	CustomerPhone string    `json:"customer_phone" gorm:"type:varchar(10)"`
	PurchasedAt   time.Time `json:"purchased_at" gorm:"autoCreateTime;index:idx_sales_event_purchased,sort:desc"`
}

// BeforeCreate hook generates KSUID before inserting
func (s *TicketSale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = ksuid.New().String()
	}
	return nil
}

// PurchaseOrderID identifies a pending checkout towards the gateway
func PurchaseOrderID(eventID, userID string) string {
	return fmt.Sprintf("event-%s-user-%s", eventID, userID)
}

// ParsePurchaseOrderID reverses PurchaseOrderID
func ParsePurchaseOrderID(orderID string) (eventID, userID string, ok bool) {
	rest, found := strings.CutPrefix(orderID, "event-")
	if !found {
		return "", "", false
	}
	eventID, userID, found = strings.Cut(rest, "-user-")
	if !found || eventID == "" || userID == "" || strings.Contains(userID, "-") {
		return "", "", false
	}
	return eventID, userID, true
}
