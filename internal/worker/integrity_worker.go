package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codearena/mcq-backend/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// IntegrityWorker drains the integrity event queue into the audit table.
// Events are already stored on the session row; this feed exists so audit
// queries do not have to unpack session jsonb.
type IntegrityWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewIntegrityWorker creates a new IntegrityWorker.
func NewIntegrityWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *IntegrityWorker {
	return &IntegrityWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "integrity_worker").Logger(),
	}
}

type integrityPayload struct {
	SessionID int64           `json:"session_id"`
	UserID    int64           `json:"user_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Start runs the drain loop until ctx is cancelled, flushing by batch size
// or timeout, whichever comes first.
func (w *IntegrityWorker) Start(ctx context.Context) {
	w.log.Info().Msg("IntegrityWorker started")

	buffer := make([]*integrityPayload, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistIntegrityQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Queue empty, loop back to check flush timer
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var payload integrityPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			// Malformed JSON can never succeed on retry. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &payload)
	}
}

// flushSafe attempts bulk insert, then fallback insert, then requeue.
func (w *IntegrityWorker) flushSafe(ctx context.Context, batch []*integrityPayload) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *IntegrityWorker) bulkInsert(ctx context.Context, batch []*integrityPayload) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, p := range batch {
		rows = append(rows, []interface{}{
			p.SessionID, p.UserID, p.Type, []byte(p.Payload), time.Unix(p.Timestamp, 0),
		})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"session_integrity_audit"},
		[]string{"session_id", "user_id", "event_type", "event_data", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *IntegrityWorker) fallbackInsert(ctx context.Context, batch []*integrityPayload) {
	requeueList := make([]*integrityPayload, 0)

	for _, p := range batch {
		_, err := w.pool.Exec(ctx,
			`INSERT INTO session_integrity_audit (session_id, user_id, event_type, event_data, recorded_at)
			 VALUES ($1, $2, $3, $4::jsonb, $5)`,
			p.SessionID, p.UserID, p.Type, string(p.Payload), time.Unix(p.Timestamp, 0),
		)
		if err != nil {
			w.log.Error().Err(err).Int64("session_id", p.SessionID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, p)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *IntegrityWorker) requeue(ctx context.Context, items []*integrityPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistIntegrityQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	// Back off a bit so a hard-down DB is not hammered.
	time.Sleep(2 * time.Second)
}

func (w *IntegrityWorker) shutdown(buffer []*integrityPayload) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
