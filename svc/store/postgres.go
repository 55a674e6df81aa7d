package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/moneylens/pkg/entitlement"
	"github.com/dmitrymomot/moneylens/pkg/pg"
)

const (
	entitlementsTable = "entitlements"
	paymentsTable     = "payments"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists entitlement records and payments in PostgreSQL.
type PostgresStore struct {
	db  DB
	now func() time.Time
}

var _ entitlement.Store = (*PostgresStore)(nil)

// NewPostgresStore wraps a pgx pool (or any compatible DB).
func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("store: postgres db cannot be nil")
	}
	return &PostgresStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*entitlement.Record, error) {
	query, args, err := psql.
		Select("user_id", "username", "is_premium", "premium_since", "premium_until", "created_at", "updated_at").
		From(entitlementsTable).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select entitlement: %w", err)
	}

	var rec entitlement.Record
	err = s.db.QueryRow(ctx, query, args...).Scan(
		&rec.UserID, &rec.Username, &rec.IsPremium, &rec.PremiumSince, &rec.PremiumUntil, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, entitlement.ErrRecordNotFound
		}
		return nil, fmt.Errorf("select entitlement: %w", err)
	}
	rec.PremiumSince = utcPtr(rec.PremiumSince)
	rec.PremiumUntil = utcPtr(rec.PremiumUntil)
	return &rec, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *entitlement.Record) error {
	query, args, err := psql.
		Insert(entitlementsTable).
		Columns("user_id", "username", "is_premium", "premium_since", "premium_until", "created_at", "updated_at").
		Values(rec.UserID, rec.Username, rec.IsPremium, rec.PremiumSince, rec.PremiumUntil, rec.CreatedAt, rec.UpdatedAt).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert entitlement: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return entitlement.ErrRecordExists
		}
		return fmt.Errorf("insert entitlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entitlement.ErrRecordExists
	}
	return nil
}

// Update upserts the patched columns. Columns absent from the patch keep their
// stored value or take the table default on insert.
// Conditional patches are evaluated by the statement itself.
func (s *PostgresStore) Update(ctx context.Context, userID string, patch entitlement.Patch) error {
	ts := patch.UpdatedAt
	if ts.IsZero() {
		ts = s.now()
	}
	if !patch.ExpiredBefore.IsZero() {
		return s.expire(ctx, userID, patch, ts)
	}

	columns := []string{"user_id", "created_at", "updated_at"}
	values := []any{userID, ts, ts}
	set := []string{"updated_at = EXCLUDED.updated_at"}
	add := func(column string, value any) {
		columns = append(columns, column)
		values = append(values, value)
		set = append(set, column+" = EXCLUDED."+column)
	}

	if patch.IsPremium != nil {
		add("is_premium", *patch.IsPremium)
	}
	if patch.PremiumSince != nil {
		add("premium_since", *patch.PremiumSince)
	}
	switch {
	case patch.Lifetime:
		add("premium_until", nil)
	case patch.PremiumUntil != nil:
		add("premium_until", *patch.PremiumUntil)
	}

	suffix := "ON CONFLICT (user_id) DO UPDATE SET " + strings.Join(set, ", ")
	if patch.KeepLifetime {
		suffix += " WHERE NOT (entitlements.is_premium AND entitlements.premium_until IS NULL)"
	}

	query, args, err := psql.
		Insert(entitlementsTable).
		Columns(columns...).
		Values(values...).
		Suffix(suffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert entitlement: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("upsert entitlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entitlement.ErrPatchConditionFailed
	}
	return nil
}

// expire writes the patch only over a premium row whose window closed before
// patch.ExpiredBefore. It never inserts.
func (s *PostgresStore) expire(ctx context.Context, userID string, patch entitlement.Patch, ts time.Time) error {
	q := psql.Update(entitlementsTable).Set("updated_at", ts)
	if patch.IsPremium != nil {
		q = q.Set("is_premium", *patch.IsPremium)
	}
	query, args, err := q.
		Where(squirrel.Eq{"user_id": userID}).
		Where("is_premium AND premium_until IS NOT NULL").
		Where(squirrel.Lt{"premium_until": patch.ExpiredBefore}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build expire entitlement: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("expire entitlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entitlement.ErrPatchConditionFailed
	}
	return nil
}

func (s *PostgresStore) AppendPayment(ctx context.Context, p *entitlement.PaymentRecord) error {
	query, args, err := psql.
		Insert(paymentsTable).
		Columns("id", "user_id", "plan_id", "amount", "currency", "provider", "status", "source", "event_id", "raw", "created_at").
		Values(p.ID, p.UserID, p.PlanID, p.Amount.Amount, p.Amount.Currency, p.Provider,
			string(p.Status), string(p.Source), p.EventID, p.Raw, p.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert payment: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// UpdatePaymentStatus performs a conditional update so concurrent transitions
// cannot both succeed.
func (s *PostgresStore) UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status entitlement.PaymentStatus) error {
	if err := entitlement.ValidatePaymentTransition(entitlement.PaymentStatusPending, status); err != nil {
		return err
	}

	query, args, err := psql.
		Update(paymentsTable).
		Set("status", string(status)).
		Where(squirrel.Eq{"id": paymentID, "status": string(entitlement.PaymentStatusPending)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update payment: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current string
	err = s.db.QueryRow(ctx, "SELECT status FROM payments WHERE id = $1", paymentID).Scan(&current)
	switch {
	case pg.IsNotFoundError(err):
		return entitlement.ErrPaymentNotFound
	case err != nil:
		return fmt.Errorf("select payment status: %w", err)
	}
	return errors.Join(entitlement.ErrInvalidPaymentState, fmt.Errorf("payment is %s", current))
}

func utcPtr(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.UTC()
	return &t
}
