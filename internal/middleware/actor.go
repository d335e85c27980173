package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

// actorKey carries the verified acting user's ID through the request context.
const actorKey contextKey = "actor_id"

// RequireActor extracts the acting user's ID from the X-User-ID header and
// stores it in the request context. Identity verification itself happens
// upstream (gateway/session layer); this service only consumes the result.
// Requests without a valid UUID in the header are rejected with 401.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get("X-User-ID"))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{
					"code":    "unauthenticated",
					"message": "missing or invalid X-User-ID header",
				},
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, id)))
	})
}

// ActorID returns the acting user's ID stored by RequireActor.
// The second return is false when the middleware did not run.
func ActorID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(actorKey).(uuid.UUID)
	return id, ok
}
