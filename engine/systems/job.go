package systems

import (
	"errors"
	"sync"

	"github.com/spaghettifunk/ember/engine/core"
)

var (
	ErrNoWorkers           = errors.New("attempting to create worker pool with less than 1 worker")
	ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
)

// JobTask is one unit of background work. OnStart runs on a pool worker;
// OnComplete or OnFailure then runs on the same worker with the result.
type JobTask struct {
	Name       string
	OnStart    func() (interface{}, error)
	OnComplete func(result interface{})
	OnFailure  func(err error)
}

// JobSystem runs background tasks on a fixed worker pool. Work that must
// reach the GPU hands off through the event system instead of touching the
// backend from a worker.
type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup
}

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}
	js.start()
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				result, err := job.OnStart()
				if err != nil {
					core.LogError("job '%s' failed: %s", job.Name, err.Error())
					if job.OnFailure != nil {
						job.OnFailure(err)
					}
					continue
				}
				if job.OnComplete != nil {
					job.OnComplete(result)
				}
			}
		}()
	}
}

// Shutdown drains the queue and stops the workers. Pending jobs still run.
func (js *JobSystem) Shutdown() error {
	close(js.jobQueue)
	js.wg.Wait()
	return nil
}

// Submit queues the job, blocking while the queue is full.
func (js *JobSystem) Submit(jt JobTask) {
	js.jobQueue <- jt
}

// SubmitNonBlocking queues the job from a detached goroutine and returns
// immediately.
func (js *JobSystem) SubmitNonBlocking(jt JobTask) {
	go js.Submit(jt)
}
