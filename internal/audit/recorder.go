// Package audit is the session-lifecycle CDR (call detail record) sink:
// an append-only trail, distinct from charging, written asynchronously so
// no procedure handler ever blocks on it.
package audit

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is one CDR.
type Event struct {
	ID        uuid.UUID
	IMSI      string
	LocalTEID uint32
	Kind      string // "session_opened", "bearer_modified", "session_closed"
	At        time.Time
}

// Recorder buffers events on a channel and flushes them to ClickHouse on a
// background goroutine. It implements engine.AuditSink.
type Recorder struct {
	conn   driver.Conn
	logger *zap.Logger
	events chan Event
	done   chan struct{}
}

// New dials ClickHouse at dsn and starts the background flush loop.
// bufferSize bounds how many events may queue before RecordEvent drops the
// new event rather than block the caller.
func New(dsn string, bufferSize int, logger *zap.Logger) (*Recorder, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}

	r := &Recorder{
		conn:   conn,
		logger: logger,
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
	go r.run()
	return r, nil
}

// RecordEvent enqueues one CDR. It never blocks: a full buffer drops the
// event and logs a warning rather than stall a procedure handler.
func (r *Recorder) RecordEvent(imsi string, localTEID uint32, kind string) {
	ev := Event{ID: uuid.New(), IMSI: imsi, LocalTEID: localTEID, Kind: kind, At: time.Now()}
	select {
	case r.events <- ev:
	default:
		r.logger.Warn("audit buffer full, dropping CDR", zap.String("imsi", imsi), zap.String("kind", kind))
	}
}

func (r *Recorder) run() {
	const flushInterval = 2 * time.Second
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	var batch []Event
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.insertBatch(batch); err != nil {
			r.logger.Error("audit batch insert failed", zap.Error(err), zap.Int("count", len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-r.events:
			batch = append(batch, ev)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-r.done:
			flush()
			return
		}
	}
}

func (r *Recorder) insertBatch(events []Event) error {
	ctx := context.Background()
	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO sgw_session_cdr (id, imsi, local_teid, kind, at)")
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := batch.Append(ev.ID, ev.IMSI, ev.LocalTEID, ev.Kind, ev.At); err != nil {
			return err
		}
	}
	return batch.Send()
}

// Close stops the flush loop after draining the current batch.
func (r *Recorder) Close() error {
	close(r.done)
	return r.conn.Close()
}
