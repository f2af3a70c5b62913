package jobs

import (
	"github.com/robfig/cron/v3"

	"dispatchsvc/internal/logx"
	"dispatchsvc/internal/metrics"
	"dispatchsvc/internal/queue"
)

// QueueGaugeJob samples the order queue depth into orders_in_queue every
// second.
type QueueGaugeJob struct {
	q      *queue.OrderQueue
	cron   *cron.Cron
	logger logx.Logger
}

// NewQueueGaugeJob builds a QueueGaugeJob over q.
func NewQueueGaugeJob(q *queue.OrderQueue, logger logx.Logger) *QueueGaugeJob {
	return &QueueGaugeJob{
		q:      q,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With(logx.String("component", "queue_gauge_job")),
	}
}

// Start begins sampling every second.
func (j *QueueGaugeJob) Start() error {
	_, err := j.cron.AddFunc("* * * * * *", func() {
		metrics.SetOrdersInQueue(j.q.Len())
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("queue gauge job started")
	return nil
}

// Stop stops the job.
func (j *QueueGaugeJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.logger.Info("queue gauge job stopped")
}
