package systems

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

const workerIdleTimeout = time.Second

// JobSystem runs batches of jobs on a worker pool. A batch returns once every
// job in it finished, which makes it usable as a per frame barrier.
type JobSystem struct {
	pool    worker.DynamicWorkerPool
	metrics *core.SyncMetrics
	clock   *core.Clock

	// one batch at a time
	mu     sync.Mutex
	nextID int
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrDuplicateJob = errors.New("job submitted twice in one batch")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}
	return &JobSystem{
		pool:    worker.NewDynamicWorkerPool(numWorkers, channelSize, workerIdleTimeout),
		metrics: core.NewSyncMetrics(),
		clock:   core.NewClock(),
	}, nil
}

func (js *JobSystem) Metrics() *core.SyncMetrics {
	return js.metrics
}

/**
 * @brief Runs every job of the batch and waits for all of them. Jobs are
 * submitted highest priority first. A name may appear only once, later
 * duplicates fail with ErrDuplicateJob without running.
 * @param jobs The jobs of this batch.
 * @return The errors of the failed jobs joined together.
 */
func (js *JobSystem) RunBatch(jobs []metadata.JobTask) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	ordered := make([]metadata.JobTask, len(jobs))
	copy(ordered, jobs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })

	js.clock.Start()
	var (
		wg   sync.WaitGroup
		emu  sync.Mutex
		errs []error
	)
	fail := func(job metadata.JobTask, err error) {
		err = fmt.Errorf("%s: %w", job.Name, err)
		emu.Lock()
		errs = append(errs, err)
		emu.Unlock()
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
	}

	seen := make(map[string]bool, len(ordered))
	for _, job := range ordered {
		if seen[job.Name] {
			fail(job, ErrDuplicateJob)
			continue
		}
		seen[job.Name] = true
		if job.OnStart == nil {
			fail(job, fmt.Errorf("job has no start function"))
			continue
		}

		wg.Add(1)
		job := job
		js.nextID++
		js.pool.SubmitTask(worker.Task{
			ID:      js.nextID,
			Payload: job.Name,
			Do: func() (result any, err error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("panic: %v", r)
						fail(job, err)
						js.metrics.PassDone(err)
					}
				}()
				result, err = job.OnStart(job.InputParams)
				js.metrics.PassDone(err)
				if err != nil {
					core.LogError("job %s failed: %s", job.Name, err.Error())
					fail(job, err)
					return nil, err
				}
				if job.OnComplete != nil {
					job.OnComplete(result)
				}
				return result, nil
			},
		})
	}
	wg.Wait()
	js.clock.Stop()
	js.metrics.FrameDone(js.clock.Elapsed())
	return errors.Join(errs...)
}

/**
 * @brief Shuts the job system down.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.pool.Stop()
	return nil
}
