package worker

// JobType selects what a worker does with a received job.
type JobType int

const (
	// Task runs the job's function.
	Task JobType = iota
	// Stop retires the worker.
	Stop
)

// Job is one unit of work delivered to a worker.
type Job struct {
	Type JobType
	Run  func()
}

type worker struct {
	pool       *Pool
	jobChannel chan Job
}

func newWorker(pool *Pool) *worker {
	return &worker{
		pool:       pool,
		jobChannel: make(chan Job),
	}
}

func (w *worker) start() {
	go func() {
		for job := range w.jobChannel {
			switch job.Type {
			case Task:
				w.runTask(job.Run)
				w.pool.release(w.jobChannel)
			case Stop:
				w.pool.retire(w.jobChannel)
				return
			}
		}
	}()
}

// runTask shields the worker loop from a panicking job; a crashed analysis
// must not take the worker down with it.
func (w *worker) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			debugLog("worker task panic: %v", r)
		}
	}()
	fn()
}
