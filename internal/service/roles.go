// Package service contains the business logic for the trip planner API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tripweaver/backend/internal/domain"
	"github.com/tripweaver/backend/internal/repo"
)

// Decision is the capability result of an authorization check. Handlers
// branch on Allowed; Reason is safe to surface to the caller.
type Decision struct {
	Allowed bool
	Reason  string
}

// allow is the positive decision shared by every granted check.
var allow = Decision{Allowed: true}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Err converts a denial into an error wrapping domain.ErrPermissionDenied.
// Returns nil for an allowed decision.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, d.Reason)
}

// permissions is the single role/action matrix. Every mutation in the system
// routes through Authorize rather than comparing roles at call sites.
var permissions = map[domain.Action]map[domain.Role]bool{
	domain.ActionViewTrip:      {domain.RoleViewer: true, domain.RoleEditor: true, domain.RoleOwner: true},
	domain.ActionEditTrip:      {domain.RoleEditor: true, domain.RoleOwner: true},
	domain.ActionEditItinerary: {domain.RoleEditor: true, domain.RoleOwner: true},
	domain.ActionEditLocations: {domain.RoleEditor: true, domain.RoleOwner: true},
	domain.ActionEditExpenses:  {domain.RoleEditor: true, domain.RoleOwner: true},
	domain.ActionManageMembers: {domain.RoleOwner: true},
	domain.ActionDeleteTrip:    {domain.RoleOwner: true},
}

// RoleAuthority resolves and enforces permissions for trip membership
// operations. Membership mutations are serialized per trip: each runs in a
// transaction that re-reads the member list with row locks and re-checks the
// sole-OWNER invariant before committing.
type RoleAuthority struct {
	members repo.MemberStore
}

// NewRoleAuthority constructs a RoleAuthority backed by the provided member store.
func NewRoleAuthority(members repo.MemberStore) *RoleAuthority {
	return &RoleAuthority{members: members}
}

// Authorize resolves whether the acting user may perform action on the trip.
// A user with no membership is denied outright; an unknown action is denied
// rather than treated as an error.
func (a *RoleAuthority) Authorize(ctx context.Context, tripID, userID uuid.UUID, action domain.Action) (Decision, error) {
	member, err := a.members.Get(ctx, tripID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return deny("not a member of this trip"), nil
		}
		return Decision{}, fmt.Errorf("service.RoleAuthority.Authorize: %w", err)
	}

	allowed, ok := permissions[action]
	if !ok {
		return deny(fmt.Sprintf("unknown action %q", action)), nil
	}
	if !allowed[member.Role] {
		return deny(fmt.Sprintf("role %s may not %s", member.Role, action)), nil
	}
	return allow, nil
}

// AddMember appends a new membership to the trip.
// The acting user must hold ManageMembers; that check precedes the duplicate
// check, so an unauthorized caller receives ErrPermissionDenied even when the
// target is already a member.
func (a *RoleAuthority) AddMember(ctx context.Context, tripID, actorID, targetID uuid.UUID, role domain.Role) (domain.TripMember, error) {
	if !role.Valid() {
		return domain.TripMember{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	if err := a.requireManageMembers(ctx, tripID, actorID); err != nil {
		return domain.TripMember{}, err
	}

	var created domain.TripMember
	err := a.members.InTx(ctx, func(r repo.MemberRepo) error {
		members, err := r.ListByTrip(ctx, tripID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.UserID == targetID {
				return fmt.Errorf("%w: user is already a member", domain.ErrConflict)
			}
		}
		created, err = r.Create(ctx, domain.TripMember{TripID: tripID, UserID: targetID, Role: role})
		return err
	})
	if err != nil {
		return domain.TripMember{}, fmt.Errorf("service.RoleAuthority.AddMember: %w", err)
	}
	return created, nil
}

// UpdateMemberRole changes an existing member's role.
// Demoting the sole OWNER fails with ErrConflict: a trip can never be left
// ownerless.
func (a *RoleAuthority) UpdateMemberRole(ctx context.Context, tripID, actorID, targetID uuid.UUID, newRole domain.Role) (domain.TripMember, error) {
	if !newRole.Valid() {
		return domain.TripMember{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, newRole)
	}
	if err := a.requireManageMembers(ctx, tripID, actorID); err != nil {
		return domain.TripMember{}, err
	}

	var updated domain.TripMember
	err := a.members.InTx(ctx, func(r repo.MemberRepo) error {
		members, err := r.ListByTrip(ctx, tripID)
		if err != nil {
			return err
		}
		if newRole != domain.RoleOwner {
			if err := ensureOwnerRemains(members, targetID); err != nil {
				return err
			}
		}
		if !hasMember(members, targetID) {
			return fmt.Errorf("%w: user is not a member", domain.ErrNotFound)
		}
		updated, err = r.UpdateRole(ctx, tripID, targetID, newRole)
		return err
	})
	if err != nil {
		return domain.TripMember{}, fmt.Errorf("service.RoleAuthority.UpdateMemberRole: %w", err)
	}
	return updated, nil
}

// RemoveMember removes a member from the trip.
// Removing the sole OWNER fails with ErrConflict; removing a non-member
// fails with ErrNotFound.
func (a *RoleAuthority) RemoveMember(ctx context.Context, tripID, actorID, targetID uuid.UUID) error {
	if err := a.requireManageMembers(ctx, tripID, actorID); err != nil {
		return err
	}

	err := a.members.InTx(ctx, func(r repo.MemberRepo) error {
		members, err := r.ListByTrip(ctx, tripID)
		if err != nil {
			return err
		}
		if !hasMember(members, targetID) {
			return fmt.Errorf("%w: user is not a member", domain.ErrNotFound)
		}
		if err := ensureOwnerRemains(members, targetID); err != nil {
			return err
		}
		return r.Delete(ctx, tripID, targetID)
	})
	if err != nil {
		return fmt.Errorf("service.RoleAuthority.RemoveMember: %w", err)
	}
	return nil
}

// ListMembers returns all members of the trip.
// Always returns a non-nil slice so callers can safely range over it.
func (a *RoleAuthority) ListMembers(ctx context.Context, tripID uuid.UUID) ([]domain.TripMember, error) {
	members, err := a.members.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.RoleAuthority.ListMembers: %w", err)
	}
	if members == nil {
		return []domain.TripMember{}, nil
	}
	return members, nil
}

// requireManageMembers enforces the authorization-before-invariant ordering
// shared by all three membership mutations.
func (a *RoleAuthority) requireManageMembers(ctx context.Context, tripID, actorID uuid.UUID) error {
	decision, err := a.Authorize(ctx, tripID, actorID, domain.ActionManageMembers)
	if err != nil {
		return err
	}
	return decision.Err()
}

// ensureOwnerRemains is the shared sole-OWNER precondition: losing targetID
// (by removal or demotion) must leave at least one OWNER on the trip.
// Called inside the membership transaction against the locked member list,
// so two concurrent demotions cannot both pass on a stale read.
func ensureOwnerRemains(members []domain.TripMember, targetID uuid.UUID) error {
	targetIsOwner := false
	otherOwners := 0
	for _, m := range members {
		if m.Role != domain.RoleOwner {
			continue
		}
		if m.UserID == targetID {
			targetIsOwner = true
		} else {
			otherOwners++
		}
	}
	if targetIsOwner && otherOwners == 0 {
		return fmt.Errorf("%w: cannot remove or demote the sole owner", domain.ErrConflict)
	}
	return nil
}

// hasMember reports whether userID appears in the member list.
func hasMember(members []domain.TripMember, userID uuid.UUID) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
