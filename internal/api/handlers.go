package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/sudanchapagain/event-booking-system/internal/errors"
	"github.com/sudanchapagain/event-booking-system/internal/middleware"
	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	defaultSimilarLimit = 5
	maxSimilarLimit     = 50
	dateLayout          = "2006-01-02"
)

// Handler handles HTTP requests
type Handler struct {
	events    EventService
	bookings  BookingService
	dashboard DashboardService
	rebuilder EmbeddingRebuilder
	live      LiveHandler
	log       *logrus.Entry
}

func NewHandler(
	events EventService,
	bookings BookingService,
	dashboard DashboardService,
	rebuilder EmbeddingRebuilder,
	live LiveHandler,
	log *logrus.Entry,
) *Handler {
	return &Handler{
		events:    events,
		bookings:  bookings,
		dashboard: dashboard,
		rebuilder: rebuilder,
		live:      live,
		log:       log,
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.NewValidationError("", "invalid JSON body: "+err.Error())
	}
	return nil
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Event handlers

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.events.Categories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) ExploreEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := parseExploreFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.events.Explore(r.Context(), filter, pageParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in models.EventCreate
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	event, err := h.events.Create(r.Context(), middleware.CurrentUser(r.Context()), &in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	detail, err := h.events.Detail(r.Context(), middleware.CurrentUser(r.Context()), mux.Vars(r)["slug"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var in models.EventUpdate
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	event, err := h.events.Update(r.Context(), middleware.CurrentUser(r.Context()), mux.Vars(r)["slug"], &in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), middleware.CurrentUser(r.Context()), mux.Vars(r)["slug"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SimilarEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultSimilarLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, apperrors.NewValidationError("limit", "must be an integer"))
			return
		}
		limit = min(parsed, maxSimilarLimit)
	}

	similar, err := h.events.Similar(r.Context(), middleware.CurrentUser(r.Context()), mux.Vars(r)["slug"], limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if similar == nil {
		similar = []*models.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": similar, "limit": limit})
}

// Booking handlers

type bookRequest struct {
	Phone string `json:"phone"`
}

func (h *Handler) BookEvent(w http.ResponseWriter, r *http.Request) {
	var in bookRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &in); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	result, err := h.bookings.Book(r.Context(), middleware.CurrentUser(r.Context()), mux.Vars(r)["slug"], strings.TrimSpace(in.Phone))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.PaymentURL != "" {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.bookings.Cancel(r.Context(), middleware.CurrentUser(r.Context()), mux.Vars(r)["slug"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// ValidatePayment is the gateway's return URL
func (h *Handler) ValidatePayment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	event, err := h.bookings.ValidatePayment(r.Context(), middleware.CurrentUser(r.Context()),
		q.Get("pidx"), q.Get("status"), q.Get("purchase_order_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "confirmed",
		"message": "Payment successful! Your booking is confirmed.",
		"event":   event,
	})
}

// Dashboard handlers

func (h *Handler) DashboardOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.dashboard.Overview(r.Context(), middleware.CurrentUser(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *Handler) DashboardBookings(w http.ResponseWriter, r *http.Request) {
	page, err := h.dashboard.Bookings(r.Context(), middleware.CurrentUser(r.Context()),
		r.URL.Query().Get("event"), pageParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) DashboardSales(w http.ResponseWriter, r *http.Request) {
	report, err := h.dashboard.Sales(r.Context(), middleware.CurrentUser(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) DashboardModeration(w http.ResponseWriter, r *http.Request) {
	events, err := h.dashboard.Moderation(r.Context(), middleware.CurrentUser(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) DashboardPosts(w http.ResponseWriter, r *http.Request) {
	page, err := h.dashboard.Posts(r.Context(), middleware.CurrentUser(r.Context()), pageParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) ApproveEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.dashboard.Approve(r.Context(), middleware.CurrentUser(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *Handler) RejectEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.dashboard.Reject(r.Context(), middleware.CurrentUser(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected", "title": event.Title})
}

// Admin handlers

// RebuildEmbeddings runs the global rebuild inline, or queues it with ?async=true
func (h *Handler) RebuildEmbeddings(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		h.writeError(w, r, apperrors.ErrUnauthenticated)
		return
	}
	if !user.IsAdmin() {
		h.writeError(w, r, apperrors.ErrForbidden)
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		queued := h.rebuilder.Trigger("admin request")
		writeJSON(w, http.StatusAccepted, map[string]any{
			"queued":       queued,
			"queue_length": h.rebuilder.GetQueueLength(),
		})
		return
	}

	count, err := h.rebuilder.RunNow(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.WithFields(logrus.Fields{"processed": count, "admin": user.ID}).Info("Embeddings rebuilt on request")
	writeJSON(w, http.StatusOK, map[string]int{"processed": count})
}

// WebSocket endpoints

func (h *Handler) HandleEventWebSocket(w http.ResponseWriter, r *http.Request) {
	h.live.HandleEventConnection(w, r)
}

func (h *Handler) HandleUpdatesWebSocket(w http.ResponseWriter, r *http.Request) {
	h.live.HandleUpdatesConnection(w, r)
}

// parseExploreFilter reads explore query parameters. Prices are in paisa;
// date_to is inclusive of the whole day.
func parseExploreFilter(r *http.Request) (*models.EventFilter, error) {
	q := r.URL.Query()
	filter := &models.EventFilter{
		Search:   strings.TrimSpace(q.Get("q")),
		Location: strings.TrimSpace(q.Get("location")),
	}

	for _, c := range q["category"] {
		if c = strings.TrimSpace(c); c != "" {
			filter.Categories = append(filter.Categories, c)
		}
	}

	for name, dst := range map[string]**int64{"min_price": &filter.MinPrice, "max_price": &filter.MaxPrice} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return nil, apperrors.NewValidationError(name, "must be a non-negative integer")
		}
		*dst = &v
	}

	if raw := q.Get("free_only"); raw != "" {
		free, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperrors.NewValidationError("free_only", "must be a boolean")
		}
		filter.FreeOnly = free
	}

	if raw := q.Get("date_from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, apperrors.NewValidationError("date_from", "must be YYYY-MM-DD")
		}
		filter.DateFrom = &from
	}
	if raw := q.Get("date_to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, apperrors.NewValidationError("date_to", "must be YYYY-MM-DD")
		}
		to = to.AddDate(0, 0, 1)
		filter.DateTo = &to
	}

	return filter, nil
}
