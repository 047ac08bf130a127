package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Alert jobs that exhaust their attempts, or arrive with an unknown type,
// are parked in dlq:{queue}. The closing itself is already committed, so a
// parked entry only means the manager was never mailed; the cierre_id in
// the entry is enough to resend it by hand.
const DLQPrefix = "dlq:"

type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	CierreID      string          `json:"cierre_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

func newDLQEntry(queue, jobType string, payload json.RawMessage, reason string, attempts int, now time.Time) DLQEntry {
	e := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      now.UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}
	if jobType == JobCierreAlerta {
		var p CierreAlertaPayload
		if err := json.Unmarshal(payload, &p); err == nil {
			e.CierreID = p.CierreID.String()
		}
	}
	return e
}

// SendToDLQ parks a failed job. Errors are only logged: the caller has
// already given up on the job.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := newDLQEntry(queue, jobType, payload, reason, attempts, time.Now())
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	key := DLQPrefix + queue
	if err := rdb.LPush(ctx, key, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", key).Str("cierre_id", entry.CierreID).Msg("dlq: failed to push")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("cierre_id", entry.CierreID).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: alerta de cierre sin enviar")
}

func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// DLQStats is reported by /health; a non-zero count means unsent alerts.
func DLQStats(ctx context.Context, rdb *redis.Client) map[string]int64 {
	stats := map[string]int64{}
	for _, q := range []string{QueueCierreAlerta} {
		n, err := DLQLength(ctx, rdb, q)
		if err != nil {
			continue
		}
		stats[q] = n
	}
	return stats
}
