// Package logging configures the single github.com/sirupsen/logrus logger
// shared by internal/engine and cmd/toictl (§7's "[ADDED] Logging").
//
// Grounded on the pack's ambient logrus-with-text-formatter setup for a
// CLI-driven daemon; kept to the one constructor the rest of this repo
// needs rather than a generic logging facade.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.Logger configured the way every toictl invocation
// wants it: text formatting, full timestamps, level read from the
// TOI_LOG_LEVEL environment variable (defaulting to info, falling back to
// info again on an unparsable value rather than failing the whole command).
func New() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetOutput(os.Stderr)

	level := logrus.InfoLevel
	if raw := os.Getenv("TOI_LOG_LEVEL"); raw != "" {
		if parsed, err := logrus.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	l.SetLevel(level)
	return l
}

// WithPanicGuard recovers a panic from fn, logs it at Fatal via log (which
// exits the process, mirroring logrus.Logger.Fatal's contract) so a
// programmer-error panic (§7.8) still leaves a log line before the process
// dies, then repanics if log somehow didn't exit (a nil or test logger).
func WithPanicGuard(log *logrus.Logger, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Fatal("unrecovered panic")
			panic(r)
		}
	}()
	fn()
}
