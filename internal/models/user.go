package models

import (
	"regexp"
	"time"

	apperrors "github.com/sudanchapagain/event-booking-system/internal/errors"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

var phonePattern = regexp.MustCompile(`^(98|97)\d{8}$`)

// User is an attendee, organizer or site administrator
type User struct {
	ID          string    `json:"id" gorm:"type:char(27);primaryKey"`
	Email       string    `json:"email" gorm:"type:varchar(254);uniqueIndex;not null"`
	Username    string    `json:"username" gorm:"type:varchar(150);not null"`
	FirstName   string    `json:"first_name" gorm:"type:varchar(150)"`
	Phone       string    `json:"phone" gorm:"type:varchar(10)"`
	IsOrganizer bool      `json:"is_organizer" gorm:"not null;default:false"`
	IsSiteAdmin bool      `json:"is_site_admin" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate hook generates KSUID before inserting
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = ksuid.New().String()
	}
	return nil
}

// DisplayName is the first name when set, otherwise the username
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// CanOrganize reports access to the organizer dashboard
func (u *User) CanOrganize() bool {
	return u != nil && (u.IsOrganizer || u.IsSiteAdmin)
}

// IsAdmin is nil-safe
func (u *User) IsAdmin() bool {
	return u != nil && u.IsSiteAdmin
}

// ValidatePhone accepts 10-digit Nepali mobile numbers starting with 98 or 97
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return apperrors.NewValidationError("phone", "phone number must start with 98 or 97 and be exactly 10 digits")
	}
	return nil
}

type UserCreate struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	Phone       string `json:"phone"`
	IsOrganizer bool   `json:"is_organizer"`
	IsSiteAdmin bool   `json:"is_site_admin"`
}
