// Package jobs implements background jobs for the guild server.
//
// Jobs run on their own goroutine with a ticker and are stopped during
// shutdown:
//
//   - FlushJob: writes dirty guilds to the store, and once more on Stop
//   - ReconcileJob: re-syncs permission grants for every guild member
//
// Each job exposes Start, Stop, RunOnce and IsRunning. Start and Stop are
// idempotent. Errors are logged and the loop keeps running.
package jobs
