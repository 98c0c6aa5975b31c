package middleware

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/sudanchapagain/event-booking-system/internal/errors"
	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/sirupsen/logrus"
)

// UserHeader carries the caller's user ID, set by the fronting auth proxy
const UserHeader = "X-User-ID"

const userKey contextKey = "user"

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate resolves UserHeader to a user. Missing or unknown IDs leave
// the request anonymous; handlers decide whether that is allowed.
func Authenticate(users UserLookup, log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(UserHeader)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(r.Context(), id)
			if err != nil {
				if !errors.Is(err, apperrors.ErrNotFound) {
					log.WithError(err).WithField("request_id", GetRequestID(r.Context())).Warn("Failed to resolve user")
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser returns the authenticated user or nil
func CurrentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}
