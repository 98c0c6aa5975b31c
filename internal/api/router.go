package api

import (
	"net/http"

	"github.com/sudanchapagain/event-booking-system/internal/middleware"

	"github.com/gorilla/mux"
)

func SetupRoutes(h *Handler, users middleware.UserLookup) *mux.Router {
	r := mux.NewRouter()

	// Tracing first so recovered panics land on the request span
	r.Use(middleware.TracingMiddleware(h.log))
	r.Use(middleware.ErrorRecoveryMiddleware(h.log))
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.Authenticate(users, h.log))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	api.HandleFunc("/categories", h.ListCategories).Methods("GET")

	// Event endpoints
	api.HandleFunc("/events", h.ExploreEvents).Methods("GET")
	api.HandleFunc("/events", h.CreateEvent).Methods("POST")
	api.HandleFunc("/events/{slug}", h.GetEvent).Methods("GET")
	api.HandleFunc("/events/{slug}", h.UpdateEvent).Methods("PUT")
	api.HandleFunc("/events/{slug}", h.DeleteEvent).Methods("DELETE")
	api.HandleFunc("/events/{slug}/similar", h.SimilarEvents).Methods("GET")

	// Booking endpoints
	api.HandleFunc("/events/{slug}/book", h.BookEvent).Methods("POST")
	api.HandleFunc("/events/{slug}/cancel", h.CancelBooking).Methods("POST")
	api.HandleFunc("/payments/validate", h.ValidatePayment).Methods("GET")

	// Dashboard endpoints
	api.HandleFunc("/dashboard", h.DashboardOverview).Methods("GET")
	api.HandleFunc("/dashboard/bookings", h.DashboardBookings).Methods("GET")
	api.HandleFunc("/dashboard/sales", h.DashboardSales).Methods("GET")
	api.HandleFunc("/dashboard/moderation", h.DashboardModeration).Methods("GET")
	api.HandleFunc("/dashboard/posts", h.DashboardPosts).Methods("GET")
	api.HandleFunc("/dashboard/events/{id}/approve", h.ApproveEvent).Methods("POST")
	api.HandleFunc("/dashboard/events/{id}/reject", h.RejectEvent).Methods("POST")

	api.HandleFunc("/admin/embeddings/rebuild", h.RebuildEmbeddings).Methods("POST")

	// WebSocket routes
	r.HandleFunc("/ws/events/{id}", h.HandleEventWebSocket)
	r.HandleFunc("/ws/updates", h.HandleUpdatesWebSocket)

	// Preflight requests need a matched route for the middleware chain to run
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
