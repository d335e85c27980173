package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. end before start, wrong detail shape for the
// itinerary type). Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrPermissionDenied is returned when the acting user's role is insufficient
// for the requested action. The authorization check always precedes
// business-invariant checks, so an unauthorized caller receives this error
// even when a conflict would also apply.
// Handlers should map this to HTTP 403.
var ErrPermissionDenied = errors.New("permission denied")

// ErrConflict is returned when a mutation would violate a business invariant:
// demoting or removing the sole OWNER, adding a user who is already a member,
// or creating a location at an already-occupied normalized key.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrExternal is returned by outbound clients (the exchange-rate lookup) on
// timeout or failure. It is always recoverable: expense rate resolution
// swallows it into ErrRateUnavailable and it never surfaces past that layer.
var ErrExternal = errors.New("external service error")

// ErrRateUnavailable is returned by rate resolution when every source in the
// precedence chain has been exhausted. The expense is still included in
// destination-currency totals; it is only excluded from origin projections.
var ErrRateUnavailable = errors.New("exchange rate unavailable")
