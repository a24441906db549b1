package worker

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/heaterlabs/warming-engine/pkg/logger"
)

type WorkerHandler = func(workerIndex int, job interface{})

// WorkerManager fans jobs out over a fixed pool of goroutines fed by
// a shared channel. The channel can be passed in so several producers
// share one pool; when nil a buffered one is created.
type WorkerManager struct {
	bufferSize  int
	jobChannel  chan interface{}
	workerCount int
	sigTerm     chan os.Signal
	do          WorkerHandler
	waiter      *sync.WaitGroup
}

func NewWorkerManager(bufferSize, workerCount int, jobChannel chan interface{}) *WorkerManager {
	if jobChannel == nil {
		jobChannel = make(chan interface{}, bufferSize)
	}
	// One buffered slot per worker so Exit signals are never lost
	// when they arrive before the workers are scheduled.
	sigChan := make(chan os.Signal, workerCount)
	signal.Notify(sigChan, syscall.SIGTERM)

	return &WorkerManager{
		bufferSize:  bufferSize,
		workerCount: workerCount,
		jobChannel:  jobChannel,
		sigTerm:     sigChan,
		waiter:      &sync.WaitGroup{},
	}
}

// GetUnreadCount is the number of jobs waiting in the channel.
func (w *WorkerManager) GetUnreadCount() int64 {
	if w.jobChannel == nil {
		return 0
	}
	return int64(len(w.jobChannel))
}

func (w *WorkerManager) JobEvents() chan interface{} {
	return w.jobChannel
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// Enqueue publishes a job onto the channel. Blocks when the buffer is
// full, which backpressures the producer.
func (w *WorkerManager) Enqueue(val interface{}) {
	w.jobChannel <- val
}

// Start runs the pool and blocks until every worker has terminated.
func (w *WorkerManager) Start() error {
	w.waiter.Add(w.workerCount)
	for i := 0; i < w.workerCount; i++ {
		go func(index int) {
			for {
				select {
				case job := <-w.jobChannel:
					w.do(index, job)
				case <-w.sigTerm:
					w.waiter.Done()
					return
				}
			}
		}(i)
	}
	w.waiter.Wait()

	return errors.New("workers terminated")
}

// Exit stops every worker. The job channel stays open since other
// producers may still hold it.
func (w *WorkerManager) Exit() {
	logger.Info("worker manager shutting down")
	for i := 0; i < w.workerCount; i++ {
		w.sigTerm <- syscall.SIGSTOP
	}
}
