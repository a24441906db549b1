package statusproc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/heaterlabs/warming-engine/internal/config"
	"github.com/heaterlabs/warming-engine/internal/queue"
	"github.com/heaterlabs/warming-engine/pkg/logger"
	"github.com/heaterlabs/warming-engine/pkg/redis"
	"github.com/heaterlabs/warming-engine/pkg/worker"
)

const ProcessingTimeout = time.Second * 5
const HealthInterval = time.Second * 30
const ShutdownTimeout = time.Minute

const consumerCount = 2
const workerCount = 10

// ConsumerService drains connection status updates off the queue and
// hands them to the registered processor through a worker pool.
type ConsumerService struct {
	adapter   redis.RedisAdapter
	queues    []*queue.Queue
	processor Processor
	metrics   *ServiceMetrics
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	worker    *worker.WorkerManager
}

// Processor consumes a single queue message.
type Processor interface {
	Process(ctx context.Context, message *queue.Message) error
	GetType() string
}

func NewConsumerService(redis redis.RedisAdapter) (*ConsumerService, error) {
	ctx, cancel := context.WithCancel(context.Background())
	service := &ConsumerService{
		adapter: redis,
		queues:  make([]*queue.Queue, 0),
		metrics: NewServiceMetrics(),
		ctx:     ctx,
		cancel:  cancel,
		worker:  worker.NewWorkerManager(1_000, workerCount, nil),
	}
	return service, nil
}

// RegisterProcessor registers the processor handling queue messages.
func (s *ConsumerService) RegisterProcessor(processor Processor) {
	s.processor = processor
	logger.Info("registered processor", "type", processor.GetType())
}

// Start starts the consumer service.
func (s *ConsumerService) Start() error {
	logger.Info("starting status consumer service...")

	s.worker.SetWorker(s.workerHandler)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(); err != nil {
			logger.Error("worker manager stopped", "error", err)
		}
	}()

	for i := 0; i < consumerCount; i++ {
		queueConfig := queue.QueueConfig{
			Name:              config.Get().StatusQueueName,
			ConsumerGroup:     config.Get().StatusQueueConsumerGroup,
			ConsumerName:      config.Get().StatusQueueConsumerName,
			MaxRetries:        config.Get().StatusQueueMaxRetries,
			VisibilityTimeout: config.Get().StatusQueueVisibility,
			PollInterval:      config.Get().StatusQueuePollInterval,
			BatchSize:         config.Get().StatusQueueBatchSize,
			MaxLen:            config.Get().StatusQueueMaxLen,
			EnableDLQ:         config.Get().StatusQueueEnableDLQ,
		}
		queueConfig.ConsumerName = fmt.Sprintf("%s-instance-%d", queueConfig.ConsumerName, i)

		q, err := queue.NewQueue(s.adapter, queueConfig)
		if err != nil {
			return fmt.Errorf("failed to create queue %d: %w", i, err)
		}

		if err := q.Consume(s.messageHandler); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}

		s.queues = append(s.queues, q)
		logger.Info("started consumer instance", "instance", i)
	}

	s.wg.Add(2)
	go s.metricsReporter()
	go s.healthChecker()

	logger.Info("status consumer service started", "consumers", len(s.queues), "workers", workerCount)
	return nil
}

func (s *ConsumerService) metricsReporter() {
	defer s.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportMetrics()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ConsumerService) reportMetrics() {
	stats := s.metrics.GetStats()

	logger.Info("status consumer metrics",
		"total_processed", stats["total_processed"],
		"total_failed", stats["total_failed"],
		"rate_per_second", stats["rate_per_second"],
		"avg_duration_ms", stats["avg_duration_ms"],
		"uptime_seconds", stats["uptime_seconds"])

	for i, q := range s.queues {
		if qStats, err := q.GetStats(); err == nil {
			logger.Info("queue stats", "queue", i, "total", qStats.TotalMessages, "pending", qStats.PendingMessages)
		}
	}
}

func (s *ConsumerService) healthChecker() {
	defer s.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performHealthCheck()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ConsumerService) performHealthCheck() {
	if err := s.adapter.Client().Ping(context.Background()).Err(); err != nil {
		logger.Error("health check failed: redis connection error", "error", err)
		return
	}

	for i, q := range s.queues {
		stats, err := q.GetStats()
		if err != nil {
			logger.Warn("health check warning: queue stats unavailable", "queue", i, "error", err)
			continue
		}

		if stats.PendingMessages > 10000 {
			logger.Warn("health check warning: queue has high lag", "queue", i, "pending_messages", stats.PendingMessages)
		}
	}

	logger.Debug("health check ok")
}

// Stop gracefully stops the service.
func (s *ConsumerService) Stop() {
	logger.Info("shutting down status consumer service...")

	s.cancel()

	timeout := ShutdownTimeout
	stopChan := make(chan bool, len(s.queues))

	for i, q := range s.queues {
		go func(index int, queue *queue.Queue) {
			if err := queue.Stop(timeout); err != nil {
				logger.Error("error stopping queue", "queue", index, "error", err)
			}
			stopChan <- true
		}(i, q)
	}

	for range s.queues {
		select {
		case <-stopChan:
		case <-time.After(timeout + 5*time.Second):
			logger.Warn("timeout waiting for queues to stop")
		}
	}

	s.worker.Exit()
	s.wg.Wait()
	s.reportMetrics()

	logger.Info("status consumer service stopped")
}

type jobResult struct {
	msg        *queue.Message
	resultChan chan error
	ctx        context.Context
}

// messageHandler receives messages from the queue and enqueues them
// to the worker pool, blocking for the result so ack semantics stay
// tied to actual processing.
func (s *ConsumerService) messageHandler(ctx context.Context, msg *queue.Message) error {
	resultChan := make(chan error, 1)

	msgCtx, cancel := context.WithTimeout(ctx, ProcessingTimeout+time.Second)
	defer cancel()

	job := &jobResult{
		msg:        msg,
		resultChan: resultChan,
		ctx:        msgCtx,
	}

	s.worker.Enqueue(job)

	select {
	case err := <-resultChan:
		return err
	case <-msgCtx.Done():
		return fmt.Errorf("timeout waiting for worker to process message: %w", msgCtx.Err())
	}
}

func (s *ConsumerService) workerHandler(workerIndex int, job interface{}) {
	jobRes, ok := job.(*jobResult)
	if !ok {
		logger.Error("invalid job type in worker", "worker", workerIndex)
		return
	}

	msg := jobRes.msg
	start := time.Now()
	var resultErr error

	select {
	case <-jobRes.ctx.Done():
		logger.Warn("job context cancelled before processing started", "worker", workerIndex)
		return
	default:
	}

	if s.processor == nil {
		logger.Warn("no processor registered", "worker", workerIndex)
		s.metrics.RecordFailure()
		resultErr = nil // ack, retrying cannot help
	} else {
		if err := s.processor.Process(jobRes.ctx, msg); err != nil {
			s.metrics.RecordFailure()
			logger.Error("failed to process message", "worker", workerIndex, "error", err)
			resultErr = err
		} else {
			s.metrics.RecordSuccess(time.Since(start))
			resultErr = nil
		}
	}

	select {
	case jobRes.resultChan <- resultErr:
	case <-jobRes.ctx.Done():
		logger.Warn("context cancelled while sending result", "worker", workerIndex)
	}
}
