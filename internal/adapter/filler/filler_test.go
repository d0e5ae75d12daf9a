package filler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// flakyBackend fails its first N calls to FillBatch, then delegates to an
// underlying mock - used to exercise fillBatchWithFallback's retry path.
type flakyBackend struct {
	failures int
	calls    int
	delegate *MockBackend
}

func (b *flakyBackend) Name() string      { return "flaky" }
func (b *flakyBackend) IsAvailable() bool { return true }

func (b *flakyBackend) FillSlot(ctx context.Context, slot domain.Slot) (string, error) {
	return b.delegate.FillSlot(ctx, slot)
}

func (b *flakyBackend) FillBatch(ctx context.Context, slots []domain.Slot) ([]string, error) {
	b.calls++
	if b.calls <= b.failures {
		return nil, errors.New("backend unavailable")
	}
	return b.delegate.FillBatch(ctx, slots)
}

func testSlots() []domain.Slot {
	return []domain.Slot{{
		ID:       "s1",
		SlotType: domain.StateTransition{StateReg: "r1", NewState: "2"},
	}}
}

func TestFill_RetriesOnFailureBeforeFallback(t *testing.T) {
	backend := &flakyBackend{failures: 2, delegate: NewRealisticMockBackend()}
	f := New(backend, DefaultConfig())

	result, err := f.Fill(context.Background(), &domain.SlotSpec{Slots: testSlots()})

	require.NoError(t, err)
	assert.Len(t, result.Slots, 1)
	assert.Equal(t, 3, backend.calls)
}

func TestFill_FallsBackAfterExhaustingRetries(t *testing.T) {
	backend := &flakyBackend{failures: 10, delegate: NewRealisticMockBackend()}
	cfg := DefaultConfig()
	cfg.MaxRetries = 1
	f := New(backend, cfg).WithFallback(NewTemplateBackend())

	result, err := f.Fill(context.Background(), &domain.SlotSpec{Slots: testSlots()})

	require.NoError(t, err)
	assert.Len(t, result.Slots, 1)
	assert.Equal(t, 2, backend.calls)
}

func TestFill_NoRetryReturnsImmediateError(t *testing.T) {
	backend := &flakyBackend{failures: 10, delegate: NewRealisticMockBackend()}
	cfg := DefaultConfig()
	cfg.RetryOnFailure = false
	f := New(backend, cfg)

	_, err := f.Fill(context.Background(), &domain.SlotSpec{Slots: testSlots()})

	require.Error(t, err)
	assert.Equal(t, 1, backend.calls)
}

func TestFillOne_DedupesConcurrentCallsForSameSlot(t *testing.T) {
	backend := NewDelayedMockBackend(20 * time.Millisecond)
	f := New(backend, DefaultConfig())
	slot := testSlots()[0]

	results := make(chan domain.FilledSlot, 4)
	for i := 0; i < 4; i++ {
		go func() {
			r, err := f.FillOne(context.Background(), slot)
			require.NoError(t, err)
			results <- r
		}()
	}

	for i := 0; i < 4; i++ {
		r := <-results
		assert.Equal(t, slot.ID, r.ID)
	}
}
