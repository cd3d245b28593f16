package workspace

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"finitefield.org/listing-console/internal/listing"
	"finitefield.org/listing-console/internal/schedule"
	"finitefield.org/listing-console/internal/storage"
)

const (
	// DefaultAutoSaveDelay is the quiet period before an edit is written.
	DefaultAutoSaveDelay = 2 * time.Second
	// RestoreWindow bounds how old a snapshot may be and still be offered for restore.
	RestoreWindow = time.Hour

	autoSaveWriteTimeout = 5 * time.Second
)

// AutoSaver writes the latest edit form snapshot once edits have been quiet for the delay.
type AutoSaver struct {
	store     storage.Store
	clock     schedule.Clock
	debouncer *schedule.Debouncer
	logger    *zap.Logger

	mu     sync.Mutex
	latest listing.AutoSaveSnapshot

	// writeMu keeps a slow write from overlapping the next flush.
	writeMu sync.Mutex
}

// NewAutoSaver constructs an AutoSaver. A non-positive delay selects DefaultAutoSaveDelay.
func NewAutoSaver(store storage.Store, clock schedule.Clock, delay time.Duration, logger *zap.Logger) *AutoSaver {
	if clock == nil {
		clock = schedule.RealClock()
	}
	if delay <= 0 {
		delay = DefaultAutoSaveDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoSaver{
		store:     store,
		clock:     clock,
		debouncer: schedule.NewDebouncer(clock, delay),
		logger:    logger,
	}
}

// Touch records the current form values for asin and restarts the quiet period.
func (a *AutoSaver) Touch(asin string, form listing.SnapshotForm) {
	a.mu.Lock()
	a.latest = listing.AutoSaveSnapshot{ASIN: asin, FormData: form}
	a.mu.Unlock()
	a.debouncer.Trigger(a.flush)
}

// Pending reports whether a write is scheduled.
func (a *AutoSaver) Pending() bool { return a.debouncer.Pending() }

// Stop drops a scheduled write.
func (a *AutoSaver) Stop() { a.debouncer.Stop() }

func (a *AutoSaver) flush() {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.mu.Lock()
	snapshot := a.latest
	a.mu.Unlock()
	snapshot.Timestamp = a.clock.Now().UnixMilli()

	ctx, cancel := context.WithTimeout(context.Background(), autoSaveWriteTimeout)
	defer cancel()
	if err := storage.SetJSON(ctx, a.store, storage.KeyAutoSave, snapshot); err != nil {
		a.logger.Error("autosave: write failed", zap.String("asin", snapshot.ASIN), zap.Error(err))
		return
	}
	a.logger.Debug("autosave: form saved", zap.String("asin", snapshot.ASIN))
}

// Restorable returns the saved snapshot for asin when it is younger than RestoreWindow.
func (a *AutoSaver) Restorable(ctx context.Context, asin string) (listing.AutoSaveSnapshot, bool) {
	var snapshot listing.AutoSaveSnapshot
	ok, err := storage.GetJSON(ctx, a.store, storage.KeyAutoSave, &snapshot)
	if err != nil {
		a.logger.Warn("autosave: read failed", zap.Error(err))
		return listing.AutoSaveSnapshot{}, false
	}
	if !ok || snapshot.ASIN != asin {
		return listing.AutoSaveSnapshot{}, false
	}
	age := a.clock.Now().Sub(time.UnixMilli(snapshot.Timestamp))
	if age < 0 || age >= RestoreWindow {
		return listing.AutoSaveSnapshot{}, false
	}
	return snapshot, true
}
