package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ValueLogGC periodically reclaims space in the Badger value log.
// Badger never garbage-collects on its own; a long-running process has
// to drive RunValueLogGC itself.
type ValueLogGC struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

func NewValueLogGC(log *slog.Logger, db *badger.DB, interval time.Duration) ValueLogGC {
	return ValueLogGC{log: log, db: db, interval: interval}
}

func (w ValueLogGC) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping value log GC")
			return nil
		case <-ticker.C:
			// One call rewrites at most one log file, loop until
			// Badger reports nothing left to rewrite
			rewritten := 0
			for w.db.RunValueLogGC(0.5) == nil {
				rewritten++
			}
			if rewritten > 0 {
				w.log.Debug("Value log GC pass done", "rewritten_files", rewritten)
			}
		}
	}
}
