// Package jobs provides scheduled background tasks for the dispatch
// service using github.com/robfig/cron/v3.
//
// # Available jobs
//
//  1. QueueGaugeJob - samples the order queue depth into the
//     orders_in_queue Prometheus gauge every second.
//  2. CourierUtilizationJob - samples every courier's current_load/capacity
//     into the courier_utilization gauge every five seconds.
//
// Jobs are managed through JobManager, which provides a unified
// start/stop interface:
//
//	jm := jobs.NewJobManager(q, store, logger)
//	if err := jm.StartAll(); err != nil {
//		log.Fatal(err)
//	}
//	defer jm.StopAll()
package jobs
