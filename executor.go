package jediterm

import (
	"sync"
	"time"
)

// ExecutorServiceManager is the Go analogue of a single-thread
// ScheduledExecutorService: every task submitted to it runs on one
// goroutine, in submission order, so writes/resizes/close never race each
// other the way they would if each were fired from its own goroutine.
type ExecutorServiceManager struct {
	tasks chan func()

	mu       sync.Mutex
	timers   map[*scheduledResize]*time.Timer
	shutdown bool

	wg sync.WaitGroup
}

// scheduledResize identifies one debounced resize so a later postResize
// call can find and cancel it; its identity (not its contents) is the key
// into the timers map.
type scheduledResize struct{}

// NewExecutorServiceManager starts the single coordinator goroutine and
// returns a manager ready to accept tasks.
func NewExecutorServiceManager() *ExecutorServiceManager {
	m := &ExecutorServiceManager{
		tasks:  make(chan func(), 64),
		timers: make(map[*scheduledResize]*time.Timer),
	}
	m.wg.Add(1)
	go m.run()
	return m
}

func (m *ExecutorServiceManager) run() {
	defer m.wg.Done()
	for task := range m.tasks {
		task()
	}
}

// Execute enqueues task to run on the coordinator goroutine. It is a
// no-op once Shutdown has been called, matching the original's
// `isShutdown()` guard.
func (m *ExecutorServiceManager) Execute(task func()) {
	m.mu.Lock()
	stopped := m.shutdown
	m.mu.Unlock()
	if stopped {
		return
	}
	m.tasks <- task
}

// Schedule runs task on the coordinator goroutine after delay, returning
// a handle that Cancel accepts to stop the pending timer; a caller
// replaces a pending task by cancelling its handle and scheduling anew.
func (m *ExecutorServiceManager) Schedule(delay time.Duration, task func()) *scheduledResize {
	handle := &scheduledResize{}
	timer := time.AfterFunc(delay, func() {
		m.mu.Lock()
		_, stillPending := m.timers[handle]
		delete(m.timers, handle)
		m.mu.Unlock()
		if stillPending {
			m.Execute(task)
		}
	})
	m.mu.Lock()
	m.timers[handle] = timer
	m.mu.Unlock()
	return handle
}

// Cancel stops a pending scheduled task if it has not already fired.
// Cancellation is idempotent: cancelling an already-fired or
// already-cancelled handle is a no-op.
func (m *ExecutorServiceManager) Cancel(handle *scheduledResize) {
	if handle == nil {
		return
	}
	m.mu.Lock()
	timer, ok := m.timers[handle]
	delete(m.timers, handle)
	m.mu.Unlock()
	if ok {
		timer.Stop()
	}
}

// Shutdown stops accepting new tasks and waits for the coordinator
// goroutine to drain whatever was already queued.
func (m *ExecutorServiceManager) Shutdown() {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.shutdown = true
	for handle, timer := range m.timers {
		timer.Stop()
		delete(m.timers, handle)
	}
	m.mu.Unlock()
	close(m.tasks)
	m.wg.Wait()
}
