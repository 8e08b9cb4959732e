// Package diag carries byte-span-aware logging helpers, so a diagnostic
// always names the exact offset it came from without every call site
// formatting it by hand. No other package in this module imports it.
package diag

import (
	"fmt"

	"github.com/grailbio/base/log"
)

// Debugf logs at Debug level, prefixed with where, a rendered source
// position (e.g. a parser.Span's String()).
func Debugf(where fmt.Stringer, format string, args ...interface{}) {
	if log.At(log.Debug) {
		log.Output(2, log.Debug, where.String()+": "+fmt.Sprintf(format, args...)) // nolint: errcheck
	}
}

// Logf logs at Info level.
func Logf(where fmt.Stringer, format string, args ...interface{}) {
	if log.At(log.Info) {
		log.Output(2, log.Info, where.String()+": "+fmt.Sprintf(format, args...)) // nolint: errcheck
	}
}

// Errorf logs at Error level.
func Errorf(where fmt.Stringer, format string, args ...interface{}) {
	log.Output(2, log.Error, where.String()+": "+fmt.Sprintf(format, args...)) // nolint: errcheck
}
