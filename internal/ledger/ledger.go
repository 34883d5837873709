package ledger

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Record is the score tally for one handle.
type Record struct {
	Wins   int `yaml:"wins"`
	Losses int `yaml:"losses"`
	Draws  int `yaml:"draws"`
}

func (r Record) String() string {
	return fmt.Sprintf("%d wins, %d losses, %d draws", r.Wins, r.Losses, r.Draws)
}

// Outcome of a finished match as far as scoring is concerned.
type Outcome int

const (
	Win Outcome = iota
	Draw
)

// Store is the durable backing for a Ledger. Implementations always read and
// write the ledger in full.
type Store interface {
	// Load returns every stored record. A Store may return usable records
	// alongside a non-nil error when only some entries were malformed.
	Load() (map[string]Record, error)
	// Save replaces the stored ledger with records.
	Save(records map[string]Record) error
	Close() error
}

// Ledger keeps win/loss/draw counts per handle and writes them through to a
// Store after every update. Storage failures are logged and never returned,
// so scoring keeps working in memory when the Store doesn't.
type Ledger struct {
	Logger *logrus.Logger

	store Store

	mu      sync.Mutex
	records *recordCache

	// Serializes Persist so that an older snapshot can never overwrite a newer one.
	saveMu sync.Mutex
	// Incremented on every mutation; compared in Persist to skip stale writes.
	version uint64
	saved   uint64
}

// Open loads the ledger from store. A missing or unreadable store results in
// an empty ledger.
func Open(store Store, logger *logrus.Logger) *Ledger {
	records, err := store.Load()
	if err != nil {
		logger.Warnf("error loading score ledger (continuing with %d records): %v", len(records), err)
	}
	if records == nil {
		records = make(map[string]Record)
	}

	return &Ledger{
		Logger:  logger,
		store:   store,
		records: newRecordCache(records),
	}
}

// Get returns the record for handle, or zeros if the handle has never played.
func (l *Ledger) Get(handle string) Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records.get(handle)
}

// All returns a copy of every record in the ledger.
func (l *Ledger) All() map[string]Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records.snapshot()
}

// Handles returns every handle with a record, sorted.
func (l *Ledger) Handles() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records.handles()
}

// RecordResult applies the result of a match and persists the ledger.
func (l *Ledger) RecordResult(winner, loser string, outcome Outcome) {
	l.Apply(winner, loser, outcome)
	l.Persist()
}

// Apply updates the in-memory counts for a match result without touching
// the Store. Callers are expected to follow up with Persist.
//
// For a Win, winner gains a win and loser a loss. For a Draw both gain a draw
// and the order of the handles is irrelevant.
func (l *Ledger) Apply(winner, loser string, outcome Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, lo := l.records.get(winner), l.records.get(loser)
	switch outcome {
	case Win:
		w.Wins++
		lo.Losses++
	case Draw:
		w.Draws++
		lo.Draws++
	}
	l.records.put(winner, w)
	l.records.put(loser, lo)
	l.version++
}

// Reset removes the record for handle and persists the ledger.
func (l *Ledger) Reset(handle string) {
	l.mu.Lock()
	l.records.remove(handle)
	l.version++
	l.mu.Unlock()

	l.Persist()
}

// Persist writes the current contents of the ledger to the Store. Errors are
// logged and the in-memory ledger stays authoritative.
func (l *Ledger) Persist() {
	l.saveMu.Lock()
	defer l.saveMu.Unlock()

	l.mu.Lock()
	version := l.version
	snapshot := l.records.snapshot()
	l.mu.Unlock()

	if version == l.saved {
		return
	}
	if err := l.store.Save(snapshot); err != nil {
		l.Logger.Errorf("error saving score ledger (scores kept in memory only): %v", err)
		return
	}
	l.saved = version
}

// Close releases the underlying Store.
func (l *Ledger) Close() error {
	return l.store.Close()
}
