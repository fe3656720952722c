package batch

import (
	"errors"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewWorkerPool_ZeroWorkers(t *testing.T) {
	if got := NewWorkerPool(0).Workers(); got != runtime.NumCPU() {
		t.Errorf("Workers() = %d, want %d", got, runtime.NumCPU())
	}
	if got := NewWorkerPool(3).Workers(); got != 3 {
		t.Errorf("Workers() = %d, want 3", got)
	}
}

func TestWorkerPool_WaitCoversAllJobs(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Close()

	var counter int64
	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&counter, 1)
		})
	}
	pool.Wait()

	if counter != 20 {
		t.Errorf("Expected counter to be 20 after Wait, got %d", counter)
	}
}

func TestWorkerPool_BoundedConcurrency(t *testing.T) {
	pool := NewWorkerPool(3)
	pool.Start()
	defer pool.Close()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 12; i++ {
		pool.Submit(func() {
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	pool.Wait()

	if maxSeen > 3 {
		t.Errorf("Expected at most 3 concurrent jobs, saw %d", maxSeen)
	}
}

func TestWorkerPool_CloseTwice(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	pool.Close()
	pool.Close()
}

func TestRun_PreservesOrder(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	inputs := []string{"a.png", "bad.gif", "c.jpg", "d.png"}
	results := Run(pool, inputs, func(in string) (string, error) {
		if strings.HasSuffix(in, ".gif") {
			return "", errors.New("unsupported")
		}
		return strings.ToUpper(in), nil
	})

	if len(results) != len(inputs) {
		t.Fatalf("Expected %d results, got %d", len(inputs), len(results))
	}
	for i, r := range results {
		if r.Index != i || r.Input != inputs[i] {
			t.Errorf("Result %d out of order: %+v", i, r)
		}
	}
	if results[1].Err == nil || results[2].Value != "C.JPG" {
		t.Errorf("Unexpected results %+v", results)
	}
}
