package jediterm

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorExecuteRunsInSubmissionOrder(t *testing.T) {
	m := NewExecutorServiceManager()
	defer m.Shutdown()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		i := i
		m.Execute(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order, "single coordinator goroutine preserves submission order")
}

func TestExecutorScheduleFiresAfterDelay(t *testing.T) {
	m := NewExecutorServiceManager()
	defer m.Shutdown()

	done := make(chan struct{})
	m.Schedule(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "scheduled task never fired")
	}
}

func TestExecutorCancelPreventsFiring(t *testing.T) {
	m := NewExecutorServiceManager()
	defer m.Shutdown()

	fired := make(chan struct{})
	handle := m.Schedule(50*time.Millisecond, func() { close(fired) })
	m.Cancel(handle)

	select {
	case <-fired:
		require.Fail(t, "cancelled task fired anyway")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestExecutorCancelAfterFireIsNoop(t *testing.T) {
	m := NewExecutorServiceManager()
	defer m.Shutdown()

	done := make(chan struct{})
	handle := m.Schedule(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "scheduled task never fired")
	}

	// The timer already fired and removed itself from the map; cancelling
	// afterward must not panic or double-stop anything.
	m.Cancel(handle)
}

func TestExecutorShutdownDrainsQueuedTasksAndRejectsNew(t *testing.T) {
	m := NewExecutorServiceManager()

	ran := make(chan struct{}, 1)
	m.Execute(func() { ran <- struct{}{} })
	m.Shutdown()

	select {
	case <-ran:
	default:
		require.Fail(t, "task queued before Shutdown must still run")
	}

	// Execute after Shutdown is a silent no-op, not a panic on a closed
	// channel.
	m.Execute(func() { t.Fatal("must not run after shutdown") })
}

func TestExecutorShutdownCancelsPendingTimers(t *testing.T) {
	m := NewExecutorServiceManager()

	fired := make(chan struct{})
	m.Schedule(200*time.Millisecond, func() { close(fired) })
	m.Shutdown()

	select {
	case <-fired:
		require.Fail(t, "pending scheduled task must not fire after shutdown")
	case <-time.After(300 * time.Millisecond):
	}
}
