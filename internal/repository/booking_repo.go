package repository

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/sudanchapagain/event-booking-system/internal/errors"
	"github.com/sudanchapagain/event-booking-system/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingRepositoryImpl handles attendances and ticket sales
type BookingRepositoryImpl struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepositoryImpl {
	return &BookingRepositoryImpl{db: db}
}

// GetAttendance returns the user's booking for an event
func (r *BookingRepositoryImpl) GetAttendance(ctx context.Context, userID, eventID string) (*models.Attendance, error) {
	var attendance models.Attendance
	err := r.db.WithContext(ctx).Where("user_id = ? AND event_id = ?", userID, eventID).First(&attendance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("booking", eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &attendance, nil
}

func (r *BookingRepositoryImpl) CreateAttendance(ctx context.Context, attendance *models.Attendance) error {
	if err := r.db.WithContext(ctx).Create(attendance).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// SavePending records a checkout in progress, keeping an existing booking row
// and refreshing its phone. The returned attendance is the stored row, so a
// retry reports the original ID and reference.
func (r *BookingRepositoryImpl) SavePending(ctx context.Context, userID, eventID, phone string) (*models.Attendance, error) {
	attendance := &models.Attendance{
		UserID:        userID,
		EventID:       eventID,
		Status:        models.AttendancePending,
		CheckoutPhone: phone,
	}
	err := r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"checkout_phone"}),
		},
		clause.Returning{},
	).Create(attendance).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save pending booking: %w", err)
	}
	return attendance, nil
}

// DeletePending drops an unpaid checkout
func (r *BookingRepositoryImpl) DeletePending(ctx context.Context, userID, eventID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ? AND status = ?", userID, eventID, models.AttendancePending).
		Delete(&models.Attendance{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete pending booking: %w", err)
	}
	return nil
}

// ConfirmPayment marks the booking confirmed, creating it when missing, and
// records the sale. The phone given at checkout wins over sale.CustomerPhone.
// A sale already recorded for the same transaction is not duplicated.
func (r *BookingRepositoryImpl) ConfirmPayment(ctx context.Context, sale *models.TicketSale) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if sale.UserID == nil {
			return fmt.Errorf("failed to confirm payment: sale has no user")
		}
		userID := *sale.UserID

		var attendance models.Attendance
		err := tx.Where("user_id = ? AND event_id = ?", userID, sale.EventID).First(&attendance).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			attendance = models.Attendance{UserID: userID, EventID: sale.EventID, Status: models.AttendanceConfirmed}
			if err := tx.Create(&attendance).Error; err != nil {
				return fmt.Errorf("failed to create booking: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to get booking: %w", err)
		default:
			if attendance.CheckoutPhone != "" {
				sale.CustomerPhone = attendance.CheckoutPhone
			}
			if err := tx.Model(&attendance).Update("status", models.AttendanceConfirmed).Error; err != nil {
				return fmt.Errorf("failed to confirm booking: %w", err)
			}
		}

		var existing int64
		if err := tx.Model(&models.TicketSale{}).Where("transaction_id = ?", sale.TransactionID).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check sale: %w", err)
		}
		if existing > 0 {
			return nil
		}
		if err := tx.Create(sale).Error; err != nil {
			return fmt.Errorf("failed to record sale: %w", err)
		}
		return nil
	})
}

func (r *BookingRepositoryImpl) SetStatus(ctx context.Context, id string, status models.AttendanceStatus) error {
	if err := r.db.WithContext(ctx).Model(&models.Attendance{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	return nil
}

func (r *BookingRepositoryImpl) DeleteAttendance(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Attendance{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}

// ConfirmedCount counts confirmed bookings for an event
func (r *BookingRepositoryImpl) ConfirmedCount(ctx context.Context, eventID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Attendance{}).
		Where("event_id = ? AND status = ?", eventID, models.AttendanceConfirmed).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}
