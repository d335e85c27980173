// Package handler implements the HTTP handlers for the trip planner API.
// All handlers are methods on Server; methods are split into domain-specific
// files (trip.go, member.go, itinerary.go, ...) but all share the same Server
// struct so they can access its dependencies. Routes wires them onto a chi
// router.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/middleware"
	"github.com/tripweaver/backend/internal/service"
)

// TripServicer defines the business operations the trip handler depends on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListByMember(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Authority is the permission and membership surface the handlers depend on.
type Authority interface {
	Authorize(ctx context.Context, tripID, userID uuid.UUID, action domain.Action) (service.Decision, error)
	ListMembers(ctx context.Context, tripID uuid.UUID) ([]domain.TripMember, error)
	AddMember(ctx context.Context, tripID, actorID, targetID uuid.UUID, role domain.Role) (domain.TripMember, error)
	UpdateMemberRole(ctx context.Context, tripID, actorID, targetID uuid.UUID, newRole domain.Role) (domain.TripMember, error)
	RemoveMember(ctx context.Context, tripID, actorID, targetID uuid.UUID) error
}

// ItineraryServicer defines the operations the itinerary handler depends on.
type ItineraryServicer interface {
	Create(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)
	GetByID(ctx context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error)
	ListPaged(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) ([]domain.ItineraryItem, int64, error)
	Update(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)
	TransitionStatus(ctx context.Context, tripID, itemID uuid.UUID, newStatus domain.ItemStatus) (domain.ItineraryItem, error)
	Delete(ctx context.Context, tripID, itemID uuid.UUID) error
}

// LocationServicer defines the operations the location handler depends on.
type LocationServicer interface {
	Create(ctx context.Context, loc domain.Location) (domain.Location, error)
	GetByID(ctx context.Context, tripID, locationID uuid.UUID) (domain.Location, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Location, error)
	Update(ctx context.Context, loc domain.Location) (domain.Location, error)
	Delete(ctx context.Context, tripID, locationID uuid.UUID) error
}

// LocationSyncer runs the itinerary-to-location reconciliation pass.
type LocationSyncer interface {
	Sync(ctx context.Context, tripID uuid.UUID) (service.SyncResult, error)
}

// ExpenseServicer defines the operations the expense handler depends on.
type ExpenseServicer interface {
	Create(ctx context.Context, e domain.Expense) (domain.Expense, error)
	GetByID(ctx context.Context, tripID, expenseID uuid.UUID) (domain.Expense, error)
	ListPaged(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) ([]domain.Expense, int64, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Expense, error)
	Update(ctx context.Context, e domain.Expense) (domain.Expense, error)
	Delete(ctx context.Context, tripID, expenseID uuid.UUID) error
	Totals(ctx context.Context, tripID uuid.UUID) (map[string]int64, error)
	ProjectToOrigin(ctx context.Context, trip domain.Trip, expenses []domain.Expense) (service.OriginProjection, error)
}

// Server holds the handler dependencies for all API endpoints.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	trips     TripServicer
	authority Authority
	itinerary ItineraryServicer
	locations LocationServicer
	syncer    LocationSyncer
	expenses  ExpenseServicer
	log       *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default.
func NewServer(trips TripServicer, authority Authority, itinerary ItineraryServicer, locations LocationServicer, syncer LocationSyncer, expenses ExpenseServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		trips:     trips,
		authority: authority,
		itinerary: itinerary,
		locations: locations,
		syncer:    syncer,
		expenses:  expenses,
		log:       log,
	}
}

// Routes mounts every API endpoint on a fresh router. The caller attaches
// global middleware (request ID, logging, CORS) around the returned handler;
// actor extraction is applied here because every route below requires it.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)

		r.Route("/trips", func(r chi.Router) {
			r.Post("/", s.CreateTrip)
			r.Get("/", s.ListTrips)

			r.Route("/{tripID}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Put("/", s.UpdateTrip)
				r.Delete("/", s.DeleteTrip)

				r.Route("/members", func(r chi.Router) {
					r.Get("/", s.ListMembers)
					r.Post("/", s.AddMember)
					r.Put("/{userID}", s.UpdateMemberRole)
					r.Delete("/{userID}", s.RemoveMember)
				})

				r.Route("/itinerary", func(r chi.Router) {
					r.Get("/", s.ListItineraryItems)
					r.Post("/", s.CreateItineraryItem)
					r.Get("/{itemID}", s.GetItineraryItem)
					r.Put("/{itemID}", s.UpdateItineraryItem)
					r.Delete("/{itemID}", s.DeleteItineraryItem)
					r.Post("/{itemID}/status", s.TransitionItineraryStatus)
				})

				r.Route("/locations", func(r chi.Router) {
					r.Get("/", s.ListLocations)
					r.Post("/", s.CreateLocation)
					r.Post("/sync", s.SyncLocations)
					r.Get("/{locationID}", s.GetLocation)
					r.Put("/{locationID}", s.UpdateLocation)
					r.Delete("/{locationID}", s.DeleteLocation)
				})

				r.Route("/expenses", func(r chi.Router) {
					r.Get("/", s.ListExpenses)
					r.Post("/", s.CreateExpense)
					r.Get("/summary", s.ExpenseSummary)
					r.Get("/{expenseID}", s.GetExpense)
					r.Put("/{expenseID}", s.UpdateExpense)
					r.Delete("/{expenseID}", s.DeleteExpense)
				})
			})
		})
	})

	return r
}

// authorize runs the permission check for tripID/action and writes the error
// response on denial or failure. Returns false when the handler must stop.
// The check always runs before any business logic, so an unauthorized caller
// sees 403 even when the request would also hit a conflict or a 404.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, tripID uuid.UUID, action domain.Action) bool {
	actorID, ok := middleware.ActorID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing actor identity")
		return false
	}
	decision, err := s.authority.Authorize(r.Context(), tripID, actorID, action)
	if err != nil {
		s.respondServiceError(w, r, err)
		return false
	}
	if !decision.Allowed {
		respondError(w, http.StatusForbidden, "permission_denied", decision.Reason)
		return false
	}
	return true
}
