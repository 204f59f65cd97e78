package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pitchcraft/generator"
	"pitchcraft/logger"
)

// Repository persists pitch records under a per-owner collection and serves
// live reads of that collection.
type Repository interface {
	Create(ctx context.Context, ownerID string, idea generator.Idea, pitch generator.GeneratedPitch, meta CreateMeta) (*PitchRecord, error)
	Get(ctx context.Context, ownerID, id string) (*PitchRecord, error)
	List(ctx context.Context, ownerID string) ([]PitchRecord, error)
	Subscribe(ctx context.Context, ownerID string) (*Subscription, error)
}

type Option func(*PitchRepository)

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *PitchRepository) { r.now = now }
}

// WithRetry sets how many times a failed read or write is retried and the
// delay before the first retry. The delay doubles on each attempt.
func WithRetry(count int, delay time.Duration) Option {
	return func(r *PitchRepository) {
		if count >= 0 {
			r.retryCount = count
		}
		if delay > 0 {
			r.retryDelay = delay
		}
	}
}

// PitchRepository is the gorm-backed Repository.
type PitchRepository struct {
	db         *gorm.DB
	now        func() time.Time
	retryCount int
	retryDelay time.Duration
	hub        *hub
	// pubMu orders snapshot reads with their delivery so a subscriber never
	// receives an older snapshot after a newer one.
	pubMu sync.Mutex
}

func NewPitchRepository(db *gorm.DB, opts ...Option) *PitchRepository {
	r := &PitchRepository{
		db:         db,
		now:        time.Now,
		retryCount: 3,
		retryDelay: 200 * time.Millisecond,
		hub:        newHub(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create writes a new record with a fresh id and a timestamp taken from the
// repository clock. Subscribers are notified after the write commits.
func (r *PitchRepository) Create(ctx context.Context, ownerID string, idea generator.Idea, pitch generator.GeneratedPitch, meta CreateMeta) (*PitchRecord, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrNoOwner
	}
	if pitch == nil {
		return nil, &RepositoryError{Op: "create", Err: errors.New("pitch is required")}
	}
	doc, err := generator.EncodePitch(pitch)
	if err != nil {
		return nil, &RepositoryError{Op: "create", Err: err}
	}

	createdAt := r.now().UTC()
	rec := PitchRecord{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Idea:          datatypes.NewJSONType(idea.Normalized()),
		Schema:        string(pitch.Kind()),
		Pitch:         datatypes.JSON(doc),
		Status:        StatusGenerated,
		UsedFallback:  meta.UsedFallback,
		ParseStrategy: string(meta.Strategy),
		CreatedAt:     &createdAt,
	}

	err = r.withRetry(ctx, "create", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Create(&rec).Error
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("pitch stored", "owner", ownerID, "id", rec.ID, "schema", rec.Schema)
	r.publish(ctx, ownerID)
	return &rec, nil
}

// Get returns the owner's record with the given id. A record owned by someone
// else is reported as ErrNotFound.
func (r *PitchRepository) Get(ctx context.Context, ownerID, id string) (*PitchRecord, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrNoOwner
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}

	var rec PitchRecord
	err := r.withRetry(ctx, "get", func() error {
		res := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id).Take(&rec)
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return res.Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns every record of the owner, newest first.
func (r *PitchRepository) List(ctx context.Context, ownerID string) ([]PitchRecord, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrNoOwner
	}

	var records []PitchRecord
	err := r.withRetry(ctx, "list", func() error {
		records = nil
		return r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&records).Error
	})
	if err != nil {
		return nil, err
	}
	SortRecords(records)
	return records, nil
}

// Subscribe delivers the owner's current record set immediately and again
// after every change, until the subscription is closed or ctx ends.
func (r *PitchRepository) Subscribe(ctx context.Context, ownerID string) (*Subscription, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrNoOwner
	}

	sub := newSubscription()
	r.pubMu.Lock()
	r.hub.add(ownerID, sub)
	sub.deliver(r.snapshot(ctx, ownerID))
	r.pubMu.Unlock()

	sub.closeOnDone(ctx)
	logger.Debug("subscription opened", "owner", ownerID, "listeners", r.hub.count(ownerID))
	return sub, nil
}

// publish sends a fresh snapshot to every subscriber of the owner. It runs
// on a context detached from the caller so a cancelled request cannot leave
// listeners with a stale view.
func (r *PitchRepository) publish(ctx context.Context, ownerID string) {
	if r.hub.count(ownerID) == 0 {
		return
	}
	r.pubMu.Lock()
	defer r.pubMu.Unlock()

	snap := r.snapshot(context.WithoutCancel(ctx), ownerID)
	for _, sub := range r.hub.listeners(ownerID) {
		sub.deliver(snap)
	}
}

func (r *PitchRepository) snapshot(ctx context.Context, ownerID string) Snapshot {
	records, err := r.List(ctx, ownerID)
	if err != nil {
		logger.Error("snapshot read failed", err, "owner", ownerID)
		return Snapshot{Err: err}
	}
	return Snapshot{Records: records}
}

// withRetry runs fn until it succeeds, the retries are used up or ctx ends.
// ErrNotFound is returned as is and never retried.
func (r *PitchRepository) withRetry(ctx context.Context, op string, fn func() error) error {
	delay := r.retryDelay
	var err error
	attempts := 0
	for attempt := 0; attempt <= r.retryCount; attempt++ {
		if attempt > 0 {
			logger.Warn("retrying repository operation", "op", op, "attempt", attempt, "error", err.Error())
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return &RepositoryError{Op: op, Err: ctx.Err()}
			case <-timer.C:
			}
			delay *= 2
		}
		attempts++
		err = fn()
		if err == nil || errors.Is(err, ErrNotFound) {
			return err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return &RepositoryError{Op: op, Err: fmt.Errorf("after %d attempt(s): %w", attempts, err)}
}
