// Package retention deletes snapshots that have aged out of a retention window.
//
// Age is measured in whole calendar days between the date embedded in a
// snapshot's file name and the date of the reference instant. A snapshot
// taken at 23:59:59 is one day old at 00:00:01 the next morning. A snapshot
// is deleted only when its age is strictly greater than the window, so a
// window of 0 keeps everything created today.
//
// Entries whose names do not parse are never deleted. A failed delete is
// recorded and the pass continues with the remaining entries:
//
//	p := retention.NewPruner(retention.WithSink(sink))
//	res, err := p.Prune(ctx, backupDir, 10, time.Now())
//	if err != nil {
//		return err // configuration or directory read failure
//	}
//	for _, f := range res.Failed {
//		log.Printf("could not delete %s: %v", f.Path, f.Err)
//	}
package retention
