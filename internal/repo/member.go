package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripweaver/backend/internal/domain"
)

// MemberRepo defines the persistence operations for trip memberships.
type MemberRepo interface {
	// Get retrieves a single membership. Returns domain.ErrNotFound if the
	// user is not a member of the trip.
	Get(ctx context.Context, tripID, userID uuid.UUID) (domain.TripMember, error)

	// ListByTrip returns all members of a trip ordered by joined_at ascending.
	// Inside MemberStore.InTx the rows are read FOR UPDATE, serializing
	// concurrent membership mutations on the same trip.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripMember, error)

	// Create appends a membership. Returns domain.ErrConflict if the user is
	// already a member (unique (trip_id, user_id)).
	Create(ctx context.Context, m domain.TripMember) (domain.TripMember, error)

	// UpdateRole sets the member's role and returns the updated membership.
	// Returns domain.ErrNotFound if the user is not a member.
	UpdateRole(ctx context.Context, tripID, userID uuid.UUID, role domain.Role) (domain.TripMember, error)

	// Delete removes a membership. Returns domain.ErrNotFound if the user is
	// not a member.
	Delete(ctx context.Context, tripID, userID uuid.UUID) error
}

// MemberStore is a MemberRepo that can also run a function inside a single
// transaction. The service layer uses it to re-read the member list and
// re-check the sole-OWNER invariant at commit time, closing the race where
// two concurrent demotions both pass a stale "not sole owner" check.
type MemberStore interface {
	MemberRepo

	// InTx runs fn against a transaction-bound MemberRepo whose ListByTrip
	// takes row locks. The transaction commits when fn returns nil and rolls
	// back otherwise.
	InTx(ctx context.Context, fn func(MemberRepo) error) error
}

// pgMemberRepo is the Postgres implementation of MemberRepo.
// forUpdate is set on transaction-bound instances so member list reads lock
// the rows they saw.
type pgMemberRepo struct {
	db        db
	forUpdate bool
}

// pgMemberStore adds transaction control on top of pgMemberRepo.
type pgMemberStore struct {
	pgMemberRepo
	bg beginner
}

// NewMemberStore constructs a MemberStore backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback
// isolation (nested transactions become savepoints).
func NewMemberStore(db beginner) MemberStore {
	return &pgMemberStore{pgMemberRepo: pgMemberRepo{db: db}, bg: db}
}

// InTx runs fn against a transaction-bound repo with locking reads.
func (s *pgMemberStore) InTx(ctx context.Context, fn func(MemberRepo) error) error {
	return pgx.BeginFunc(ctx, s.bg, func(tx pgx.Tx) error {
		return fn(&pgMemberRepo{db: tx, forUpdate: true})
	})
}

const memberColumns = `trip_id, user_id, role, joined_at`

// Get retrieves one membership by its composite key.
func (r *pgMemberRepo) Get(ctx context.Context, tripID, userID uuid.UUID) (domain.TripMember, error) {
	const q = `
		SELECT ` + memberColumns + `
		FROM trip_members
		WHERE trip_id = @trip_id AND user_id = @user_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID})
	result, err := scanMember(row)
	if err != nil {
		return domain.TripMember{}, fmt.Errorf("repo.MemberRepo.Get: %w", err)
	}
	return result, nil
}

// ListByTrip returns all members of a trip, oldest membership first.
func (r *pgMemberRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripMember, error) {
	q := `
		SELECT ` + memberColumns + `
		FROM trip_members
		WHERE trip_id = @trip_id
		ORDER BY joined_at`
	if r.forUpdate {
		q += `
		FOR UPDATE`
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.MemberRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	members := []domain.TripMember{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.MemberRepo.ListByTrip: scan: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.MemberRepo.ListByTrip: rows: %w", err)
	}
	return members, nil
}

// Create appends a membership row.
func (r *pgMemberRepo) Create(ctx context.Context, m domain.TripMember) (domain.TripMember, error) {
	const q = `
		INSERT INTO trip_members (trip_id, user_id, role)
		VALUES (@trip_id, @user_id, @role)
		RETURNING ` + memberColumns

	args := pgx.NamedArgs{
		"trip_id": m.TripID,
		"user_id": m.UserID,
		"role":    m.Role,
	}

	result, err := scanMember(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.TripMember{}, fmt.Errorf("repo.MemberRepo.Create: %w", domain.ErrConflict)
		}
		return domain.TripMember{}, fmt.Errorf("repo.MemberRepo.Create: %w", err)
	}
	return result, nil
}

// UpdateRole sets the member's role.
func (r *pgMemberRepo) UpdateRole(ctx context.Context, tripID, userID uuid.UUID, role domain.Role) (domain.TripMember, error) {
	const q = `
		UPDATE trip_members
		SET role = @role
		WHERE trip_id = @trip_id AND user_id = @user_id
		RETURNING ` + memberColumns

	args := pgx.NamedArgs{"trip_id": tripID, "user_id": userID, "role": role}

	result, err := scanMember(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.TripMember{}, fmt.Errorf("repo.MemberRepo.UpdateRole: %w", err)
	}
	return result, nil
}

// Delete removes a membership row.
func (r *pgMemberRepo) Delete(ctx context.Context, tripID, userID uuid.UUID) error {
	const q = `
		DELETE FROM trip_members
		WHERE trip_id = @trip_id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.MemberRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.MemberRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanMember maps a single database row into a domain.TripMember.
func scanMember(s scanner) (domain.TripMember, error) {
	var (
		m      domain.TripMember
		tripID pgtype.UUID
		userID pgtype.UUID
	)
	err := s.Scan(&tripID, &userID, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TripMember{}, domain.ErrNotFound
		}
		return domain.TripMember{}, err
	}
	m.TripID = uuid.UUID(tripID.Bytes)
	m.UserID = uuid.UUID(userID.Bytes)
	return m, nil
}
