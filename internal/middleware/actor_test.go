package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/backend/internal/middleware"
)

// TestRequireActor_ValidHeader verifies that a well-formed X-User-ID header
// passes through and that the handler can read the actor ID from context.
func TestRequireActor_ValidHeader(t *testing.T) {
	actor := uuid.New()

	var gotID uuid.UUID
	var gotOK bool
	h := middleware.RequireActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = middleware.ActorID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/trips", nil)
	req.Header.Set("X-User-ID", actor.String())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotOK)
	assert.Equal(t, actor, gotID)
}

// TestRequireActor_Rejects verifies that missing or malformed headers are
// rejected with 401 before the wrapped handler runs.
func TestRequireActor_Rejects(t *testing.T) {
	for name, header := range map[string]string{
		"missing":   "",
		"malformed": "not-a-uuid",
	} {
		t.Run(name, func(t *testing.T) {
			called := false
			h := middleware.RequireActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/trips", nil)
			if header != "" {
				req.Header.Set("X-User-ID", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called, "handler must not run without a verified actor")
		})
	}
}

// TestActorID_AbsentFromContext verifies the lookup fails cleanly when the
// middleware never ran.
func TestActorID_AbsentFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/trips", nil)

	_, ok := middleware.ActorID(req.Context())

	assert.False(t, ok)
}
