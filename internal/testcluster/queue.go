package testcluster

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrQueueClosed is returned by Queue.Add after Close.
var ErrQueueClosed = errors.New("boot queue is closed")

// Task is one unit of queued work. It may return before its work is finished
// but must call done exactly once when it is. Extra calls are ignored.
type Task func(done func(err error))

// DrainFunc is called once the queue has run out of work. err joins every
// task error not yet handed to an earlier DrainFunc.
type DrainFunc func(err error)

// Queue runs tasks one at a time in the order they were added. Task k+1 is
// not started until task k has called done, even when tasks finish their
// work on other goroutines.
type Queue struct {
	mu      sync.Mutex
	pending []Task
	drains  []DrainFunc
	errs    []error
	running bool
	closed  bool
	log     logrus.FieldLogger
}

// NewQueue returns an idle queue. A nil logger means the logrus standard
// logger.
func NewQueue(log logrus.FieldLogger) *Queue {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Queue{log: log}
}

// Add appends t to the queue and starts the runner if it is idle.
func (q *Queue) Add(t Task) error {
	if t == nil {
		return nil
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.pending = append(q.pending, t)
	start := !q.running
	q.running = true
	q.mu.Unlock()

	if start {
		go q.run()
	}
	return nil
}

// Drain registers fn to be called once, after every task added so far has
// finished and nothing else is pending. On an idle queue fn is called
// promptly with any errors left over from work that finished before it.
// Drain can be used again after more tasks are added.
func (q *Queue) Drain(fn DrainFunc) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	if q.running {
		q.drains = append(q.drains, fn)
		q.mu.Unlock()
		return
	}
	err := errors.Join(q.errs...)
	q.errs = nil
	q.mu.Unlock()
	go fn(err)
}

// Close rejects further Add calls. Tasks already pending still run.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Pending returns the number of tasks not yet started.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) run() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			drains := q.drains
			if len(drains) == 0 {
				// Errors stay queued for the next Drain.
				q.running = false
				if len(q.errs) > 0 {
					q.log.WithField("errors", len(q.errs)).Debug("Boot queue went idle with undelivered task errors")
				}
				q.mu.Unlock()
				return
			}
			err := errors.Join(q.errs...)
			q.drains = nil
			q.errs = nil
			q.mu.Unlock()

			// Drain callbacks may add more work; the loop picks it up.
			for _, fn := range drains {
				fn(err)
			}
			continue
		}
		task := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		if err := q.exec(task); err != nil {
			q.mu.Lock()
			q.errs = append(q.errs, err)
			q.mu.Unlock()
		}
	}
}

// exec starts task and blocks until it signals completion.
func (q *Queue) exec(task Task) error {
	result := make(chan error, 1)
	var once sync.Once
	task(func(err error) {
		once.Do(func() { result <- err })
	})
	return <-result
}
