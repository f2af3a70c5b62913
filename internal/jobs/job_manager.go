package jobs

import (
	"fmt"

	"dispatchsvc/internal/logx"
	"dispatchsvc/internal/queue"
	"dispatchsvc/internal/store"
)

type job interface {
	Start() error
	Stop()
}

// JobManager coordinates the lifecycle of every background job so callers
// don't need to know how many there are or stop them in a particular order.
type JobManager struct {
	jobs   []job
	logger logx.Logger
}

// NewJobManager builds the full set of background jobs over q and st.
func NewJobManager(q *queue.OrderQueue, st *store.Store, logger logx.Logger) *JobManager {
	return &JobManager{
		jobs: []job{
			NewQueueGaugeJob(q, logger),
			NewCourierUtilizationJob(st, logger),
		},
		logger: logger.With(logx.String("component", "job_manager")),
	}
}

// StartAll starts every job. If one fails to start, the jobs already
// started are stopped before the error is returned so no job is left
// running behind the caller's back.
func (m *JobManager) StartAll() error {
	started := make([]job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if err := j.Start(); err != nil {
			for _, s := range started {
				s.Stop()
			}
			return fmt.Errorf("starting job: %w", err)
		}
		started = append(started, j)
	}
	m.logger.Info("all jobs started")
	return nil
}

// StopAll stops every job, regardless of which ones are actually running.
func (m *JobManager) StopAll() {
	for _, j := range m.jobs {
		j.Stop()
	}
	m.logger.Info("all jobs stopped")
}
