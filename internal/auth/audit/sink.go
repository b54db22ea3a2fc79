// Package audit delivers security audit entries to the store without
// making callers wait on, or fail because of, the write.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	"github.com/aussiebroadwan/mealvote/internal/auth/store"
	"github.com/aussiebroadwan/mealvote/pkg/idx"
)

// Sink records audit entries. Record never blocks on I/O.
type Sink interface {
	Record(ctx context.Context, e domain.AuditEntry)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Record(context.Context, domain.AuditEntry) {}

type Config struct {
	BufferSize    int           `koanf:"buffersize"`
	BatchSize     int           `koanf:"batchsize"`
	FlushInterval time.Duration `koanf:"flushinterval"`
}

// AsyncSink buffers entries in a channel and writes them in batches from a
// single worker. Full buffers drop entries with a warning.
type AsyncSink struct {
	store  store.Store
	logger *slog.Logger
	cfg    Config
	now    func() time.Time

	ch        chan domain.AuditEntry
	wg        sync.WaitGroup
	closeOnce sync.Once
	cancel    context.CancelFunc

	// OnDrop, when set, is called for every entry dropped on a full buffer.
	OnDrop func(domain.AuditEntry)
}

func NewAsyncSink(s store.Store, logger *slog.Logger, cfg Config) *AsyncSink {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &AsyncSink{
		store:  s,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
		ch:     make(chan domain.AuditEntry, cfg.BufferSize),
		cancel: cancel,
	}

	a.wg.Add(1)
	go a.worker(ctx)
	return a
}

// Record stamps the entry with an id and time when missing and enqueues it.
func (a *AsyncSink) Record(_ context.Context, e domain.AuditEntry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = a.now().UTC()
	}
	if e.ID == "" {
		e.ID = idx.NewAt(e.CreatedAt).String()
	}

	select {
	case a.ch <- e:
	default:
		a.logger.Warn("audit buffer full, dropping entry", "action", e.Action, "tenant_id", e.TenantID)
		if a.OnDrop != nil {
			a.OnDrop(e)
		}
	}
}

// Close flushes what is buffered and stops the worker. Entries recorded
// after Close are dropped.
func (a *AsyncSink) Close() error {
	a.closeOnce.Do(func() {
		a.cancel()
		a.wg.Wait()
		a.flush(a.drainAll())
	})
	return nil
}

func (a *AsyncSink) worker(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.FlushInterval)
	defer ticker.Stop()

	var batch []domain.AuditEntry
	for {
		select {
		case <-ctx.Done():
			a.flush(append(batch, a.drainAll()...))
			return

		case e := <-a.ch:
			batch = append(batch, e)
			if len(batch) >= a.cfg.BatchSize {
				a.flush(batch)
				batch = nil
			}

		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = nil
			}
		}
	}
}

func (a *AsyncSink) flush(entries []domain.AuditEntry) {
	if len(entries) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := a.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Audit().Insert(ctx, entries...)
	})
	if err != nil {
		a.logger.Error("audit flush failed", "error", err, "count", len(entries))
	}
}

func (a *AsyncSink) drainAll() []domain.AuditEntry {
	var entries []domain.AuditEntry
	for {
		select {
		case e := <-a.ch:
			entries = append(entries, e)
		default:
			return entries
		}
	}
}
