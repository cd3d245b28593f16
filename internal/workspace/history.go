// Package workspace keeps the console's per-user state (history, settings and the auto-saved
// edit form) in a storage.Store.
package workspace

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"finitefield.org/listing-console/internal/listing"
	"finitefield.org/listing-console/internal/schedule"
	"finitefield.org/listing-console/internal/storage"
)

// MaxHistory caps the number of remembered products.
const MaxHistory = 50

// History is the most-recent-first list of processed products.
// Storage failures are logged and never returned.
type History struct {
	store  storage.Store
	clock  schedule.Clock
	logger *zap.Logger

	mu sync.Mutex
}

// NewHistory constructs a History.
func NewHistory(store storage.Store, clock schedule.Clock, logger *zap.Logger) *History {
	if clock == nil {
		clock = schedule.RealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{store: store, clock: clock, logger: logger}
}

// Add records asin at the front of the list, dropping any older entry for the same asin.
func (h *History) Add(ctx context.Context, asin, title string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.load(ctx)
	next := make([]listing.HistoryEntry, 0, len(entries)+1)
	next = append(next, listing.HistoryEntry{
		ASIN:      asin,
		Title:     title,
		Timestamp: h.clock.Now().UnixMilli(),
	})
	for _, e := range entries {
		if e.ASIN != asin {
			next = append(next, e)
		}
	}
	if len(next) > MaxHistory {
		next = next[:MaxHistory]
	}
	if err := storage.SetJSON(ctx, h.store, storage.KeyHistory, next); err != nil {
		h.logger.Error("history: save failed", zap.String("asin", asin), zap.Error(err))
	}
}

// List returns the stored entries, most recent first.
func (h *History) List(ctx context.Context) []listing.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load(ctx)
}

// Clear removes every entry.
func (h *History) Clear(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.store.Delete(ctx, storage.KeyHistory); err != nil {
		h.logger.Error("history: clear failed", zap.Error(err))
	}
}

func (h *History) load(ctx context.Context) []listing.HistoryEntry {
	var entries []listing.HistoryEntry
	if _, err := storage.GetJSON(ctx, h.store, storage.KeyHistory, &entries); err != nil {
		h.logger.Warn("history: load failed, starting empty", zap.Error(err))
		return nil
	}
	return entries
}
