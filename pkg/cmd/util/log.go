package util

import (
	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sets the package-wide logrus level from the root
// command's persistent flags: -v/--verbose raises Info to Debug, and
// --trace-gen raises it further to Trace. Only the level is set here;
// the compiler packages themselves write no log entries.
func ConfigureLogging(verbose, traceGen bool) {
	switch {
	case traceGen:
		log.SetLevel(log.TraceLevel)
	case verbose:
		log.SetLevel(log.DebugLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}
