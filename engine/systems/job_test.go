package systems

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewJobSystemValidation(t *testing.T) {
	if _, err := NewJobSystem(0, 4); err != ErrNoWorkers {
		t.Errorf("got %v, want ErrNoWorkers", err)
	}
	if _, err := NewJobSystem(2, -1); err != ErrNegativeChannelSize {
		t.Errorf("got %v, want ErrNegativeChannelSize", err)
	}
}

func TestJobSystemRunsJobs(t *testing.T) {
	js, err := NewJobSystem(4, 8)
	if err != nil {
		t.Fatal(err)
	}

	var completed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		js.Submit(JobTask{
			Name:    "count",
			OnStart: func() (interface{}, error) { return 1, nil },
			OnComplete: func(result interface{}) {
				completed.Add(int32(result.(int)))
				wg.Done()
			},
			OnFailure: func(error) { wg.Done() },
		})
	}
	wg.Wait()

	if got := completed.Load(); got != 20 {
		t.Errorf("completed %d jobs, want 20", got)
	}
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestJobSystemRoutesFailures(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	if err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	var gotErr error
	var completed bool
	done := make(chan struct{})
	js.Submit(JobTask{
		Name:       "failing",
		OnStart:    func() (interface{}, error) { return nil, boom },
		OnComplete: func(interface{}) { completed = true },
		OnFailure: func(err error) {
			gotErr = err
			close(done)
		},
	})
	<-done

	if gotErr != boom {
		t.Errorf("got %v, want the job error", gotErr)
	}
	if completed {
		t.Error("OnComplete must not run for a failed job")
	}
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestJobSystemShutdownDrainsQueue(t *testing.T) {
	js, err := NewJobSystem(1, 16)
	if err != nil {
		t.Fatal(err)
	}

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		js.Submit(JobTask{
			Name:    "pending",
			OnStart: func() (interface{}, error) { ran.Add(1); return nil, nil },
		})
	}
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if got := ran.Load(); got != 10 {
		t.Errorf("%d jobs ran, want all 10 before shutdown returns", got)
	}
}
