package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	driver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/moneylens/pkg/entitlement"
	"github.com/dmitrymomot/moneylens/pkg/mongo"
)

const (
	usersCollection    = "users"
	paymentsCollection = "payments"
)

type userDoc struct {
	UserID       string     `bson:"_id"`
	Username     string     `bson:"username,omitempty"`
	IsPremium    bool       `bson:"is_premium"`
	PremiumSince *time.Time `bson:"premium_since"`
	PremiumUntil *time.Time `bson:"premium_until"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
}

type paymentDoc struct {
	ID        string         `bson:"_id"`
	UserID    string         `bson:"user_id"`
	PlanID    string         `bson:"plan_id"`
	Amount    int64          `bson:"amount"`
	Currency  string         `bson:"currency"`
	Provider  string         `bson:"provider"`
	Status    string         `bson:"status"`
	Source    string         `bson:"source"`
	EventID   string         `bson:"event_id,omitempty"`
	Raw       map[string]any `bson:"raw,omitempty"`
	CreatedAt time.Time      `bson:"created_at"`
}

// MongoStore keeps one document per user keyed by the external user id,
// and an append-only payments collection.
type MongoStore struct {
	users    *driver.Collection
	payments *driver.Collection
	now      func() time.Time
}

var _ entitlement.Store = (*MongoStore)(nil)

// NewMongoStore uses the users and payments collections of db.
func NewMongoStore(db *driver.Database) *MongoStore {
	if db == nil {
		panic("store: mongo database cannot be nil")
	}
	return &MongoStore{
		users:    db.Collection(usersCollection),
		payments: db.Collection(paymentsCollection),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the secondary indexes on the payments collection.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.payments.Indexes().CreateMany(ctx, []driver.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "event_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create payment indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, userID string) (*entitlement.Record, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if mongo.IsNotFoundError(err) {
			return nil, entitlement.ErrRecordNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.record(), nil
}

func (s *MongoStore) Create(ctx context.Context, rec *entitlement.Record) error {
	if _, err := s.users.InsertOne(ctx, newUserDoc(rec)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entitlement.ErrRecordExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update upserts the patched fields. An expiry patch never inserts, and a
// guarded upsert that collides with a lifetime document fails its condition.
func (s *MongoStore) Update(ctx context.Context, userID string, patch entitlement.Patch) error {
	ts := patch.UpdatedAt
	if ts.IsZero() {
		ts = s.now()
	}
	expiring := !patch.ExpiredBefore.IsZero()

	res, err := s.users.UpdateOne(ctx,
		patchFilter(userID, patch),
		patchUpdate(patch, ts),
		options.UpdateOne().SetUpsert(!expiring),
	)
	if err != nil {
		if patch.KeepLifetime && mongo.IsDuplicateKeyError(err) {
			return entitlement.ErrPatchConditionFailed
		}
		return fmt.Errorf("update user: %w", err)
	}
	if expiring && res.MatchedCount == 0 {
		return entitlement.ErrPatchConditionFailed
	}
	return nil
}

func (s *MongoStore) AppendPayment(ctx context.Context, p *entitlement.PaymentRecord) error {
	if _, err := s.payments.InsertOne(ctx, newPaymentDoc(p)); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *MongoStore) UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status entitlement.PaymentStatus) error {
	if err := entitlement.ValidatePaymentTransition(entitlement.PaymentStatusPending, status); err != nil {
		return err
	}

	res, err := s.payments.UpdateOne(ctx,
		bson.M{"_id": paymentID.String(), "status": string(entitlement.PaymentStatusPending)},
		bson.M{"$set": bson.M{"status": string(status)}},
	)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := s.payments.CountDocuments(ctx, bson.M{"_id": paymentID.String()})
	if err != nil {
		return fmt.Errorf("count payments: %w", err)
	}
	if n == 0 {
		return entitlement.ErrPaymentNotFound
	}
	return errors.Join(entitlement.ErrInvalidPaymentState, errors.New("payment is not pending"))
}

// patchFilter selects the user document the patch may touch.
func patchFilter(userID string, p entitlement.Patch) bson.M {
	filter := bson.M{"_id": userID}
	switch {
	case !p.ExpiredBefore.IsZero():
		filter["is_premium"] = true
		filter["premium_until"] = bson.M{"$lt": p.ExpiredBefore}
	case p.KeepLifetime:
		filter["$nor"] = bson.A{bson.M{"is_premium": true, "premium_until": nil}}
	}
	return filter
}

// patchUpdate builds an upsert document. created_at and the default flag are
// only written when the document is inserted.
func patchUpdate(p entitlement.Patch, ts time.Time) bson.M {
	set := bson.M{"updated_at": ts}
	onInsert := bson.M{"created_at": ts}

	if p.IsPremium != nil {
		set["is_premium"] = *p.IsPremium
	} else {
		onInsert["is_premium"] = false
	}
	if p.PremiumSince != nil {
		set["premium_since"] = *p.PremiumSince
	}
	switch {
	case p.Lifetime:
		set["premium_until"] = nil
	case p.PremiumUntil != nil:
		set["premium_until"] = *p.PremiumUntil
	}

	return bson.M{"$set": set, "$setOnInsert": onInsert}
}

func newUserDoc(rec *entitlement.Record) userDoc {
	return userDoc{
		UserID:       rec.UserID,
		Username:     rec.Username,
		IsPremium:    rec.IsPremium,
		PremiumSince: rec.PremiumSince,
		PremiumUntil: rec.PremiumUntil,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

func (d userDoc) record() *entitlement.Record {
	return &entitlement.Record{
		UserID:       d.UserID,
		Username:     d.Username,
		IsPremium:    d.IsPremium,
		PremiumSince: utcPtr(d.PremiumSince),
		PremiumUntil: utcPtr(d.PremiumUntil),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func newPaymentDoc(p *entitlement.PaymentRecord) paymentDoc {
	return paymentDoc{
		ID:        p.ID.String(),
		UserID:    p.UserID,
		PlanID:    p.PlanID,
		Amount:    p.Amount.Amount,
		Currency:  p.Amount.Currency,
		Provider:  p.Provider,
		Status:    string(p.Status),
		Source:    string(p.Source),
		EventID:   p.EventID,
		Raw:       p.Raw,
		CreatedAt: p.CreatedAt,
	}
}
