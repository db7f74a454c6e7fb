// Package job runs the backup, mirror and restore jobs.
//
// A [Runner] builds the engines for one run, fans their events out to the
// log, an optional extra sink and the metrics collector, and returns a report
// that can be written to disk with [WriteReport]. A [Scheduler] runs jobs on
// cron schedules for daemon mode.
package job
