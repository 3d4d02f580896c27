package codec

import (
	"context"
	"fmt"
	"strconv"

	"flowboard/internal/domain"
)

// Revisions is the durable export counter. It lives outside any document,
// under "<identity>.revision" in a key-value store.
type Revisions struct {
	kv  domain.KVStore
	key string
}

func NewRevisions(kv domain.KVStore, identity string) *Revisions {
	return &Revisions{kv: kv, key: identity + ".revision"}
}

func (r *Revisions) Key() string { return r.key }

// Current returns the stored revision, 0 when none is stored.
func (r *Revisions) Current(ctx context.Context) (int, error) {
	v, ok, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return 0, fmt.Errorf("read revision: %w", err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("read revision: stored value %q: %w", v, err)
	}
	return n, nil
}

// Next increments the stored revision and returns the new value.
func (r *Revisions) Next(ctx context.Context) (int, error) {
	cur, err := r.Current(ctx)
	if err != nil {
		return 0, err
	}
	next := cur + 1
	if err := r.Set(ctx, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *Revisions) Set(ctx context.Context, n int) error {
	if err := r.kv.Set(ctx, r.key, strconv.Itoa(n)); err != nil {
		return fmt.Errorf("write revision: %w", err)
	}
	return nil
}

// Reset forgets the revision; the next export is revision 1.
func (r *Revisions) Reset(ctx context.Context) error {
	if err := r.kv.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("reset revision: %w", err)
	}
	return nil
}
