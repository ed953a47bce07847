package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codearena/mcq-backend/internal/config"
	"github.com/codearena/mcq-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SubmissionWorker drains answer snapshots into the submission history
// table, giving each session an append-only trail of what the taker had
// answered at each save.
type SubmissionWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewSubmissionWorker creates a new SubmissionWorker.
func NewSubmissionWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SubmissionWorker {
	return &SubmissionWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "submission_worker").Logger(),
	}
}

type submissionPayload struct {
	SessionID int64                  `json:"session_id"`
	UserID    int64                  `json:"user_id"`
	Answers   map[int64]model.Answer `json:"answers"`
	Timestamp int64                  `json:"timestamp"`
}

// Start runs the drain loop until ctx is cancelled.
func (w *SubmissionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SubmissionWorker started")

	buffer := make([]*submissionPayload, 0, BatchSize)
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

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistSubmissionsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
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

		var payload submissionPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &payload)
	}
}

func (w *SubmissionWorker) flushSafe(ctx context.Context, batch []*submissionPayload) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *SubmissionWorker) bulkInsert(ctx context.Context, batch []*submissionPayload) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, p := range batch {
		answers, err := json.Marshal(p.Answers)
		if err != nil {
			return err
		}
		rows = append(rows, []interface{}{
			p.SessionID, p.UserID, answers, time.Unix(p.Timestamp, 0),
		})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"choice_submissions"},
		[]string{"session_id", "user_id", "answers", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *SubmissionWorker) fallbackInsert(ctx context.Context, batch []*submissionPayload) {
	requeueList := make([]*submissionPayload, 0)

	for _, p := range batch {
		answers, err := json.Marshal(p.Answers)
		if err != nil {
			w.log.Error().Err(err).Int64("session_id", p.SessionID).Msg("Dropping unmarshalable snapshot")
			continue
		}
		_, err = w.pool.Exec(ctx,
			`INSERT INTO choice_submissions (session_id, user_id, answers, recorded_at)
			 VALUES ($1, $2, $3::jsonb, $4)`,
			p.SessionID, p.UserID, answers, time.Unix(p.Timestamp, 0),
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

func (w *SubmissionWorker) requeue(ctx context.Context, items []*submissionPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	time.Sleep(2 * time.Second)
}

func (w *SubmissionWorker) shutdown(buffer []*submissionPayload) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
