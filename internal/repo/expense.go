package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/tripweaver/backend/internal/domain"
)

// ExpenseRepo defines the persistence operations for Expenses.
type ExpenseRepo interface {
	// Create inserts a new expense and returns the persisted record.
	Create(ctx context.Context, e domain.Expense) (domain.Expense, error)

	// GetByID retrieves a single expense by ID, scoped to the given tripID.
	GetByID(ctx context.Context, tripID, expenseID uuid.UUID) (domain.Expense, error)

	// ListByTrip returns all expenses for a trip ordered by expense_datetime.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Expense, error)

	// ListPaged returns one page of a trip's expenses and the total count.
	ListPaged(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) ([]domain.Expense, int64, error)

	// Update overwrites the mutable fields of an expense.
	Update(ctx context.Context, e domain.Expense) (domain.Expense, error)

	// Delete removes an expense by ID, scoped to the given tripID.
	Delete(ctx context.Context, tripID, expenseID uuid.UUID) error
}

// pgExpenseRepo is the Postgres implementation of ExpenseRepo.
// Amounts are stored as bigint minor units; the optional pinned exchange rate
// as numeric, read back through ::text into a decimal.
type pgExpenseRepo struct {
	db db
}

// NewExpenseRepo constructs an ExpenseRepo backed by the provided db connection.
func NewExpenseRepo(db db) ExpenseRepo {
	return &pgExpenseRepo{db: db}
}

const expenseColumns = `id, trip_id, title, category, expense_datetime,
		amount_destination_minor, destination_currency, exchange_rate_used::text,
		linked_itinerary_item_id, paid_by_user_id, payment_method,
		created_at, updated_at`

// Create inserts a new expense row.
func (r *pgExpenseRepo) Create(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	const q = `
		INSERT INTO expenses (trip_id, title, category, expense_datetime,
		                      amount_destination_minor, destination_currency,
		                      exchange_rate_used, linked_itinerary_item_id,
		                      paid_by_user_id, payment_method)
		VALUES (@trip_id, @title, @category, @expense_datetime, @amount,
		        @currency, @exchange_rate_used, @linked_itinerary_item_id,
		        @paid_by_user_id, @payment_method)
		RETURNING ` + expenseColumns

	result, err := scanExpense(r.db.QueryRow(ctx, q, expenseArgs(e)))
	if err != nil {
		return domain.Expense{}, fmt.Errorf("repo.ExpenseRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves an expense by ID under the given trip.
func (r *pgExpenseRepo) GetByID(ctx context.Context, tripID, expenseID uuid.UUID) (domain.Expense, error) {
	const q = `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE trip_id = @trip_id AND id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "id": expenseID})
	result, err := scanExpense(row)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("repo.ExpenseRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListByTrip returns all expenses for a trip in chronological order.
func (r *pgExpenseRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Expense, error) {
	const q = `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE trip_id = @trip_id
		ORDER BY expense_datetime`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ExpenseRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ExpenseRepo.ListByTrip: scan: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ExpenseRepo.ListByTrip: rows: %w", err)
	}
	return expenses, nil
}

// ListPaged returns one page of a trip's expenses plus the total count.
func (r *pgExpenseRepo) ListPaged(ctx context.Context, tripID uuid.UUID, p domain.PaginationParams) ([]domain.Expense, int64, error) {
	const countQ = `SELECT count(*) FROM expenses WHERE trip_id = @trip_id`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"trip_id": tripID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ExpenseRepo.ListPaged: count: %w", err)
	}

	const q = `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE trip_id = @trip_id
		ORDER BY expense_datetime
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"trip_id": tripID,
		"limit":   p.Limit,
		"offset":  p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ExpenseRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.ExpenseRepo.ListPaged: scan: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.ExpenseRepo.ListPaged: rows: %w", err)
	}
	return expenses, total, nil
}

// Update overwrites the mutable fields of an expense.
func (r *pgExpenseRepo) Update(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	const q = `
		UPDATE expenses
		SET title                    = @title,
		    category                 = @category,
		    expense_datetime         = @expense_datetime,
		    amount_destination_minor = @amount,
		    destination_currency     = @currency,
		    exchange_rate_used       = @exchange_rate_used,
		    linked_itinerary_item_id = @linked_itinerary_item_id,
		    paid_by_user_id          = @paid_by_user_id,
		    payment_method           = @payment_method,
		    updated_at               = now()
		WHERE trip_id = @trip_id AND id = @id
		RETURNING ` + expenseColumns

	args := expenseArgs(e)
	args["id"] = e.ID

	result, err := scanExpense(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Expense{}, fmt.Errorf("repo.ExpenseRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes an expense by ID under the given trip.
func (r *pgExpenseRepo) Delete(ctx context.Context, tripID, expenseID uuid.UUID) error {
	const q = `DELETE FROM expenses WHERE trip_id = @trip_id AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "id": expenseID})
	if err != nil {
		return fmt.Errorf("repo.ExpenseRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ExpenseRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// expenseArgs builds the shared NamedArgs for Create and Update.
func expenseArgs(e domain.Expense) pgx.NamedArgs {
	return pgx.NamedArgs{
		"trip_id":                  e.TripID,
		"title":                    e.Title,
		"category":                 e.Category,
		"expense_datetime":         e.ExpenseDateTime,
		"amount":                   e.AmountMinor,
		"currency":                 e.Currency,
		"exchange_rate_used":       rateArg(e.ExchangeRateUsed),
		"linked_itinerary_item_id": e.LinkedItineraryItem,
		"paid_by_user_id":          e.PaidByUserID,
		"payment_method":           e.PaymentMethod,
	}
}

// scanExpense maps a single database row into a domain.Expense.
func scanExpense(s scanner) (domain.Expense, error) {
	var (
		e      domain.Expense
		id     pgtype.UUID
		tripID pgtype.UUID
		rate   *string
		itemID pgtype.UUID
		paidBy pgtype.UUID
	)

	err := s.Scan(&id, &tripID, &e.Title, &e.Category, &e.ExpenseDateTime,
		&e.AmountMinor, &e.Currency, &rate, &itemID, &paidBy,
		&e.PaymentMethod, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Expense{}, domain.ErrNotFound
		}
		return domain.Expense{}, err
	}

	e.ID = uuid.UUID(id.Bytes)
	e.TripID = uuid.UUID(tripID.Bytes)
	e.PaidByUserID = uuid.UUID(paidBy.Bytes)
	if itemID.Valid {
		iid := uuid.UUID(itemID.Bytes)
		e.LinkedItineraryItem = &iid
	}
	if rate != nil {
		d, err := decimal.NewFromString(*rate)
		if err != nil {
			return domain.Expense{}, fmt.Errorf("parse exchange_rate_used: %w", err)
		}
		e.ExchangeRateUsed = &d
	}

	return e, nil
}
