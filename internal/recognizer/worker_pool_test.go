package recognizer

import (
	"sync/atomic"
	"testing"
)

func TestWorkerPool_RunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(3)
	pool.Start()
	defer pool.Close()

	var counter int64
	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}
	pool.Wait()

	if counter != 20 {
		t.Errorf("Expected 20 jobs executed, got %d", counter)
	}
}

func TestWorkerPool_WaitBlocksUntilDone(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Close()

	done := make(chan struct{})
	var finished int64
	pool.Submit(func() {
		<-done
		atomic.AddInt64(&finished, 1)
	})

	if atomic.LoadInt64(&finished) != 0 {
		t.Fatal("Job finished before being released")
	}
	close(done)
	pool.Wait()

	if atomic.LoadInt64(&finished) != 1 {
		t.Error("Wait returned before the job completed")
	}
}

func TestWorkerPool_DefaultsWorkerCount(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool.workers <= 0 {
		t.Errorf("Expected a positive default worker count, got %d", pool.workers)
	}
}

func TestWorkerPool_StartIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	pool.Start()
	defer pool.Close()

	var counter int64
	pool.Submit(func() { atomic.AddInt64(&counter, 1) })
	pool.Wait()

	if counter != 1 {
		t.Errorf("Expected 1 execution, got %d", counter)
	}
}
