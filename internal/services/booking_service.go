package services

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/sudanchapagain/event-booking-system/internal/errors"
	"github.com/sudanchapagain/event-booking-system/internal/middleware"
	"github.com/sudanchapagain/event-booking-system/internal/models"
	"github.com/sudanchapagain/event-booking-system/internal/payment"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// BookingResult is either a confirmed booking or a checkout to complete
type BookingResult struct {
	Booking    *models.Attendance `json:"booking"`
	PaymentURL string             `json:"payment_url,omitempty"`
}

// BookingServiceImpl handles free registrations and paid checkouts
type BookingServiceImpl struct {
	events        EventRepository
	bookings      BookingRepository
	gateway       PaymentGateway // nil when payments are not configured
	notifier      LiveNotifier
	publicBaseURL string
	log           *logrus.Entry
	now           func() time.Time
}

func NewBookingService(
	events EventRepository,
	bookings BookingRepository,
	gateway PaymentGateway,
	notifier LiveNotifier,
	publicBaseURL string,
	log *logrus.Entry,
) *BookingServiceImpl {
	return &BookingServiceImpl{
		events:        events,
		bookings:      bookings,
		gateway:       gateway,
		notifier:      notifier,
		publicBaseURL: publicBaseURL,
		log:           log,
		now:           time.Now,
	}
}

// Book registers user for a free event, or starts a gateway checkout for a
// paid one and returns the payment URL. A pending checkout may be retried.
func (s *BookingServiceImpl) Book(ctx context.Context, user *models.User, slug, phone string) (*BookingResult, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	event, err := s.events.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !event.IsApproved {
		return nil, apperrors.NewNotFoundError("event", slug)
	}

	existing, err := s.bookings.GetAttendance(ctx, user.ID, event.ID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		existing = nil
	case err != nil:
		return nil, err
	case existing.Status != models.AttendancePending:
		return nil, apperrors.ErrAlreadyBooked
	}

	if event.NextDate(s.now()) == nil {
		return nil, apperrors.ErrNoUpcomingDates
	}
	if event.IsSoldOut() {
		return nil, apperrors.ErrSoldOut
	}

	if event.IsFree() {
		return s.bookFree(ctx, user, event, existing)
	}
	return s.checkout(ctx, user, event, phone)
}

func (s *BookingServiceImpl) bookFree(ctx context.Context, user *models.User, event *models.Event, existing *models.Attendance) (*BookingResult, error) {
	var attendance *models.Attendance
	if existing != nil {
		if err := s.bookings.SetStatus(ctx, existing.ID, models.AttendanceConfirmed); err != nil {
			return nil, err
		}
		existing.Status = models.AttendanceConfirmed
		attendance = existing
	} else {
		attendance = &models.Attendance{UserID: user.ID, EventID: event.ID, Status: models.AttendanceConfirmed}
		if err := s.bookings.CreateAttendance(ctx, attendance); err != nil {
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{"event": event.ID, "user": user.ID}).Info("Registered for free event")
	s.publishAvailability(ctx, event)
	return &BookingResult{Booking: attendance}, nil
}

func (s *BookingServiceImpl) checkout(ctx context.Context, user *models.User, event *models.Event, phone string) (*BookingResult, error) {
	ctx, span := middleware.StartSpan(ctx, "BookingService.Checkout",
		attribute.String("event.id", event.ID),
		attribute.Int64("amount", event.TicketPrice),
	)
	defer span.End()

	if err := models.ValidatePhone(phone); err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, apperrors.ErrPaymentNotConfigured
	}

	resp, err := s.gateway.Initiate(ctx, &payment.InitiateRequest{
		ReturnURL:         s.publicBaseURL + "/api/payments/validate",
		WebsiteURL:        s.publicBaseURL + "/",
		Amount:            event.TicketPrice,
		PurchaseOrderID:   models.PurchaseOrderID(event.ID, user.ID),
		PurchaseOrderName: truncateRunes(event.Title, payment.MaxOrderNameLength),
		CustomerInfo: payment.CustomerInfo{
			Name:  user.DisplayName(),
			Email: user.Email,
			Phone: phone,
		},
	})
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, apperrors.NewPaymentError("Payment service is unavailable.", err)
	}
	if resp.PaymentURL == "" {
		return nil, apperrors.NewPaymentError("Failed to initiate payment.", nil)
	}

	attendance, err := s.bookings.SavePending(ctx, user.ID, event.ID, phone)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"event": event.ID, "user": user.ID, "pidx": resp.Pidx}).Info("Checkout initiated")
	return &BookingResult{Booking: attendance, PaymentURL: resp.PaymentURL}, nil
}

// ValidatePayment handles the gateway redirect. The gateway's lookup is the
// source of truth; the redirect status only short-circuits failures.
func (s *BookingServiceImpl) ValidatePayment(ctx context.Context, user *models.User, pidx, status, orderID string) (*models.Event, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if pidx == "" || status == "" || orderID == "" {
		return nil, apperrors.NewValidationError("", "invalid payment response")
	}

	eventID, userID, ok := models.ParsePurchaseOrderID(orderID)
	if !ok {
		return nil, apperrors.NewValidationError("purchase_order_id", "invalid payment reference")
	}
	if userID != user.ID {
		return nil, apperrors.NewPaymentError("Payment verification failed.", nil)
	}

	ctx, span := middleware.StartSpan(ctx, "BookingService.ValidatePayment",
		attribute.String("event.id", eventID),
		attribute.String("pidx", pidx),
	)
	defer span.End()

	if status != payment.StatusCompleted {
		if err := s.bookings.DeletePending(ctx, user.ID, eventID); err != nil {
			return nil, err
		}
		return nil, apperrors.NewPaymentError("Payment was not completed.", nil)
	}

	if s.gateway == nil {
		return nil, apperrors.ErrPaymentNotConfigured
	}
	lookup, err := s.gateway.Lookup(ctx, pidx)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, apperrors.NewPaymentError("Could not verify payment.", err)
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !lookup.Completed() {
		if err := s.bookings.DeletePending(ctx, user.ID, event.ID); err != nil {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{"event": event.ID, "pidx": pidx, "status": lookup.Status}).Warn("Payment not completed at gateway")
		return nil, apperrors.NewPaymentError("Payment verification failed.", nil)
	}

	userRef := user.ID
	sale := &models.TicketSale{
		UserID:        &userRef,
		EventID:       event.ID,
		Quantity:      1,
		TotalPrice:    event.TicketPrice,
		TransactionID: pidx,
		CustomerPhone: user.Phone,
	}
	if err := s.bookings.ConfirmPayment(ctx, sale); err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"event": event.ID, "user": user.ID, "pidx": pidx}).Info("Payment confirmed")
	s.publishAvailability(ctx, event)
	return event, nil
}

// Cancel removes a free booking outright and marks a paid one cancelled
func (s *BookingServiceImpl) Cancel(ctx context.Context, user *models.User, slug string) error {
	if user == nil {
		return apperrors.ErrUnauthenticated
	}

	event, err := s.events.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	attendance, err := s.bookings.GetAttendance(ctx, user.ID, event.ID)
	if err != nil {
		return err
	}

	if event.IsFree() {
		err = s.bookings.DeleteAttendance(ctx, attendance.ID)
	} else {
		err = s.bookings.SetStatus(ctx, attendance.ID, models.AttendanceCancelled)
	}
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"event": event.ID, "user": user.ID}).Info("Booking cancelled")
	s.publishAvailability(ctx, event)
	return nil
}

func (s *BookingServiceImpl) publishAvailability(ctx context.Context, event *models.Event) {
	if s.notifier == nil {
		return
	}
	count, err := s.bookings.ConfirmedCount(ctx, event.ID)
	if err != nil {
		s.log.WithError(err).Warn("Failed to count bookings for live update")
		return
	}
	event.ConfirmedCount = count
	s.notifier.Publish(models.EventRoom(event.ID), models.Availability(event))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
