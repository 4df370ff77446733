package util

import (
	"time"

	"github.com/hauke96/sigolo/v2"
)

// LogDuration logs the time since the given start at debug level and returns it.
func LogDuration(start time.Time, format string, args ...interface{}) time.Duration {
	duration := time.Since(start)
	if sigolo.ShouldLogTrace() {
		sigolo.Tracef(format+" took %s", append(args, duration)...)
	} else {
		sigolo.Debugf(format+" took %s", append(args, duration)...)
	}
	return duration
}
