package jobs

import (
	"github.com/robfig/cron/v3"

	"dispatchsvc/internal/logx"
	"dispatchsvc/internal/metrics"
	"dispatchsvc/internal/store"
)

// CourierUtilizationJob samples every courier's load fraction into
// courier_utilization every five seconds.
type CourierUtilizationJob struct {
	store  *store.Store
	cron   *cron.Cron
	logger logx.Logger
}

// NewCourierUtilizationJob builds a CourierUtilizationJob over st.
func NewCourierUtilizationJob(st *store.Store, logger logx.Logger) *CourierUtilizationJob {
	return &CourierUtilizationJob{
		store:  st,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With(logx.String("component", "courier_utilization_job")),
	}
}

// Start begins sampling every five seconds.
func (j *CourierUtilizationJob) Start() error {
	_, err := j.cron.AddFunc("*/5 * * * * *", func() {
		for _, c := range j.store.ListCouriers(nil, nil) {
			metrics.SetCourierUtilization(c.ID.String(), c.CurrentLoad, c.Capacity)
		}
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("courier utilization job started")
	return nil
}

// Stop stops the job.
func (j *CourierUtilizationJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.logger.Info("courier utilization job stopped")
}
