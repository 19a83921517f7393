// Package jobs provides scheduled background tasks for the order workflow.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
// Schedules use six fields, seconds first.
//
// # Available Jobs
//
// 1. IdempotencyPurgeJob - deletes idempotency records past the retention window
// 2. OutboxRelayJob - publishes pending outbox entries, marking them dead after the attempt limit
// 3. AutoAdvanceJob - moves orders across autoWhenDone edges as the system actor
//
// # Usage
//
//	purge, err := jobs.NewIdempotencyPurgeJob(purgeHandler, "0 0 * * * *", 72*time.Hour, logger)
//	if err != nil {
//		return err
//	}
//	jobManager := jobs.NewJobManager(purge, relay, autoAdvance)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Run errors are logged and never stop the schedule. A run still in progress
// when the next tick fires causes that tick to be skipped.
package jobs
