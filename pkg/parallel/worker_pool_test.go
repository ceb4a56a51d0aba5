package parallel

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolBasicOperations(t *testing.T) {
	pool := NewWorkerPool(4)

	var executed atomic.Bool
	if !pool.Submit(func() { executed.Store(true) }) {
		t.Error("Task submission failed")
	}
	pool.Close()

	if !executed.Load() {
		t.Error("Task was not executed")
	}
}

func TestWorkerPoolDefaultsAndClamp(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool.Workers() < 1 {
		t.Errorf("Workers() = %d", pool.Workers())
	}
	pool.Close()

	pool = NewWorkerPool(MaxWorkers + 10)
	if pool.Workers() != MaxWorkers {
		t.Errorf("Workers() = %d, want %d", pool.Workers(), MaxWorkers)
	}
	pool.Close()
}

func TestWorkerPoolConcurrentSubmissions(t *testing.T) {
	pool := NewWorkerPool(10)

	numTasks := 100
	var counter int64

	var wg sync.WaitGroup
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(func() {
				atomic.AddInt64(&counter, 1)
			})
		}()
	}

	wg.Wait()
	pool.Close()

	if counter != int64(numTasks) {
		t.Errorf("Expected counter %d, got %d", numTasks, counter)
	}
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close() // idempotent

	if pool.Submit(func() {}) {
		t.Error("Submit after Close should return false")
	}
}

func TestWorkerPoolCloseRace(t *testing.T) {
	for iteration := 0; iteration < 50; iteration++ {
		pool := NewWorkerPool(4)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					pool.Submit(func() { time.Sleep(100 * time.Microsecond) })
				}
			}()
		}

		time.Sleep(500 * time.Microsecond)
		pool.Close()
		wg.Wait()
	}
}

func TestWorkerPoolPanicRecovery(t *testing.T) {
	pool := NewWorkerPool(1)

	var recovered atomic.Value
	pool.OnPanic(func(r any) { recovered.Store(r) })

	var after atomic.Bool
	pool.Submit(func() { panic("boom") })
	pool.Submit(func() { after.Store(true) })
	pool.Close()

	if recovered.Load() != "boom" {
		t.Errorf("recovered = %v", recovered.Load())
	}
	if !after.Load() {
		t.Error("worker died after panic")
	}
}

func TestMapPreservesOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}
	got, err := Map(3, items, func(i int, v int) (int, error) {
		time.Sleep(time.Duration(v) * time.Millisecond)
		return v * 10, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []int{50, 10, 40, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMapFirstErrorByIndex(t *testing.T) {
	errTwo := errors.New("two")
	errFour := errors.New("four")
	_, err := Map(0, []int{1, 2, 3, 4}, func(i int, v int) (int, error) {
		switch v {
		case 2:
			time.Sleep(5 * time.Millisecond)
			return 0, errTwo
		case 4:
			return 0, errFour
		}
		return v, nil
	})
	if !errors.Is(err, errTwo) {
		t.Errorf("err = %v, want %v", err, errTwo)
	}
}

func TestMapPanicBecomesError(t *testing.T) {
	_, err := Map(2, []string{"a", "b"}, func(i int, s string) (string, error) {
		if s == "b" {
			panic("bad item")
		}
		return s, nil
	})
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Index != 1 {
		t.Errorf("err = %v", err)
	}
}

func TestMapEmpty(t *testing.T) {
	got, err := Map(4, []int(nil), func(i, v int) (int, error) { return v, nil })
	if err != nil || len(got) != 0 {
		t.Errorf("Map(nil) = %v, %v", got, err)
	}
}
