package filler

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
	"github.com/jeremyhahn/neurlang/internal/core/ports"
	"github.com/jeremyhahn/neurlang/internal/util"
)

// Config mirrors the Rust FillerConfig.
type Config struct {
	UseCache       bool
	MaxBatchSize   int
	Timeout        time.Duration
	RetryOnFailure bool
	MaxRetries     int
}

func DefaultConfig() Config {
	return Config{
		UseCache:       true,
		MaxBatchSize:   64,
		Timeout:        5 * time.Second,
		RetryOnFailure: true,
		MaxRetries:     3,
	}
}

// FillResult is what Fill returns for an entire SlotSpec.
type FillResult struct {
	Slots       []domain.FilledSlot
	TotalTimeMs float64
	CacheHits   int
	CacheMisses int
}

// Filler orchestrates slot generation across a primary backend, an optional
// fallback, an optional cache, and in-flight request dedup via singleflight
// (concurrent identical cache misses collapse to one backend call).
type Filler struct {
	backend  ports.SlotFillerBackend
	fallback ports.SlotFillerBackend
	cache    ports.SlotCache
	cfg      Config
	group    singleflight.Group
}

func New(backend ports.SlotFillerBackend, cfg Config) *Filler {
	return &Filler{backend: backend, cfg: cfg}
}

func Mock() *Filler { return New(NewRealisticMockBackend(), DefaultConfig()) }

func MockWithTemplates() *Filler {
	f := Mock()
	f.fallback = NewTemplateBackend()
	return f
}

func (f *Filler) WithFallback(b ports.SlotFillerBackend) *Filler { f.fallback = b; return f }
func (f *Filler) WithCache(c ports.SlotCache) *Filler { f.cache = c; return f }

// hashSlot hashes a slot's type details (variant and parameters, not the
// slot ID) with xxhash, so structurally identical slots from different
// specs share one cache key.
func hashSlot(slot domain.Slot) uint64 {
	h := xxhash.New()
	h.WriteString(fmt.Sprintf("%#v", slot.SlotType))
	return h.Sum64()
}

// Fill fills every slot in spec, consulting the cache first and batching
// the remaining slots through the primary backend. Result slots are in the
// same order as spec.Slots.
func (f *Filler) Fill(ctx context.Context, spec *domain.SlotSpec) (FillResult, error) {
	start := time.Now()
	filled := make([]domain.FilledSlot, len(spec.Slots))
	var cacheHits, cacheMisses int

	type pending struct {
		idx  int
		slot domain.Slot
		hash uint64
	}
	var toFill []pending

	for idx, slot := range spec.Slots {
		hash := hashSlot(slot)
		if f.cfg.UseCache && f.cache != nil {
			if entry, ok := f.cache.Get(hash); ok {
				filled[idx] = domain.FilledSlot{
					ID: slot.ID, Code: entry.Code, FromCache: true, Confidence: 1.0,
				}
				cacheHits++
				continue
			}
		}
		toFill = append(toFill, pending{idx, slot, hash})
		cacheMisses++
	}

	if len(toFill) > 0 {
		slots := make([]domain.Slot, len(toFill))
		for i, p := range toFill {
			slots[i] = p.slot
		}

		batchStart := time.Now()
		codes, err := f.fillBatchWithFallback(ctx, slots)
		if err != nil {
			return FillResult{}, err
		}
		batchTimeMs := float64(time.Since(batchStart).Microseconds()) / 1000.0
		perSlotMs := batchTimeMs / float64(len(codes))

		for i, p := range toFill {
			code := codes[i]
			if f.cfg.UseCache && f.cache != nil {
				_ = f.cache.Put(p.hash, code)
			}
			filled[p.idx] = domain.FilledSlot{
				ID: p.slot.ID, Code: code, GenerationTimeMs: perSlotMs, Confidence: 0.9,
			}
		}
	}

	return FillResult{
		Slots:       filled,
		TotalTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
		CacheHits:   cacheHits,
		CacheMisses: cacheMisses,
	}, nil
}

// fillBatchWithFallback retries the primary backend with exponential
// backoff (RetryOnFailure/MaxRetries) before giving the
// fallback backend a single attempt.
func (f *Filler) fillBatchWithFallback(ctx context.Context, slots []domain.Slot) ([]string, error) {
	codes, err := f.backend.FillBatch(ctx, slots)
	if err == nil {
		return codes, nil
	}

	if f.cfg.RetryOnFailure {
		for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
			delay := util.CalculateExponentialBackoff(attempt, 50*time.Millisecond, 2*time.Second, 0.2)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}

			codes, err = f.backend.FillBatch(ctx, slots)
			if err == nil {
				return codes, nil
			}
		}
	}

	if f.fallback == nil {
		return nil, err
	}
	return f.fallback.FillBatch(ctx, slots)
}

// FillOne fills a single slot, deduplicating concurrent requests for the
// identical slot hash via singleflight before falling back past the
// primary backend.
func (f *Filler) FillOne(ctx context.Context, slot domain.Slot) (domain.FilledSlot, error) {
	hash := hashSlot(slot)

	if f.cfg.UseCache && f.cache != nil {
		if entry, ok := f.cache.Get(hash); ok {
			return domain.FilledSlot{ID: slot.ID, Code: entry.Code, FromCache: true, Confidence: 1.0}, nil
		}
	}

	key := fmt.Sprintf("%d", hash)
	v, err, _ := f.group.Do(key, func() (any, error) {
		code, err := f.backend.FillSlot(ctx, slot)
		if err != nil {
			if f.fallback != nil {
				code, err = f.fallback.FillSlot(ctx, slot)
			}
			if err != nil {
				return nil, err
			}
		}
		if f.cfg.UseCache && f.cache != nil {
			_ = f.cache.Put(hash, code)
		}
		return code, nil
	})
	if err != nil {
		return domain.FilledSlot{}, err
	}

	return domain.FilledSlot{ID: slot.ID, Code: v.(string), Confidence: 0.9}, nil
}
