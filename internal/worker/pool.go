package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"micaja/internal/infra"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueCierreAlerta = "jobs:cierre_alerta"

	JobCierreAlerta = "cierre_alerta"

	// maxAttempts before a job is moved to the DLQ.
	maxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// CierreAlertaPayload is the job sent when a closing exceeds the alert threshold.
type CierreAlertaPayload struct {
	CierreID uuid.UUID `json:"cierre_id"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueCierreAlerta pushes an alert-email job for a closing.
func (d *Dispatcher) EnqueueCierreAlerta(ctx context.Context, cierreID uuid.UUID) error {
	return d.enqueue(ctx, QueueCierreAlerta, JobCierreAlerta, CierreAlertaPayload{CierreID: cierreID})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	if d == nil || d.rdb == nil {
		return errors.New("dispatcher: redis no disponible")
	}
	encoded, err := encodeJob(jobType, payload)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

func encodeJob(jobType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Job{Type: jobType, Payload: data})
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	metrics  *infra.Metrics
}

func NewPool(rdb *redis.Client, metrics *infra.Metrics) *Pool {
	return &Pool{rdb: rdb, handlers: map[string]Handler{}, metrics: metrics}
}

// Register binds a handler to a job type.
func (p *Pool) Register(jobType string, h Handler) {
	p.handlers[jobType] = h
}

// Start launches numWorkers goroutines consuming the queues.
// Each goroutine blocks on BRPOP: zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	queues := []string{QueueCierreAlerta}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler registered", job.Attempts)
		return
	}

	err := h.Process(ctx, job.Payload)
	p.metrics.RecordJob(job.Type, err == nil)
	if err == nil {
		log.Info().Str("job_type", job.Type).Str("queue", queue).Msg("job processed")
		return
	}

	job.Attempts++
	if job.Attempts >= maxAttempts {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}
	log.Warn().Err(err).Str("job_type", job.Type).Int("attempts", job.Attempts).Msg("job failed, requeueing")
	if err := p.requeue(ctx, queue, job); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("requeue failed")
	}
}

func (p *Pool) requeue(ctx context.Context, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return p.rdb.LPush(ctx, queue, encoded).Err()
}
