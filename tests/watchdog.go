package tests

import "time"

// Watchdog calls onExpire if it's not stopped within the timeout. Returned
// function stops the watchdog and reports whether it was still running.
func Watchdog(timeout time.Duration, onExpire func()) (stop func() bool) {
	return time.AfterFunc(timeout, onExpire).Stop
}
