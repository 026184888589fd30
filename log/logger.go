// Package log wraps github.com/op/go-logging into the small leveled
// interface accel/accelopt.Options.Logger accepts. Every accelerator gets
// its own named logger (accelopt.Build passes the accelerator kind as the
// name); cmd/accelbench raises the shared verbosity via SetLevel when its
// -v/-vv flags are set.
package log

import (
	"io"
	"os"

	"github.com/op/go-logging"
)

// Level is the verbosity SetLevel accepts. Only the levels this module's
// accelerators and CLI actually emit are exposed; go-logging's Warning and
// Error tiers have no caller here and are left off the enum.
type Level logging.Level

const (
	Debug Level = iota
	Info
	Notice
)

// format matches the teacher's layout: colorized level tag, millisecond
// timestamp, module name.
var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

var leveledBackend logging.LeveledBackend

// Logger is what accelopt.Options.Logger and every accelerator's build path
// log build diagnostics through: per-treelet/octant degeneracy notices at
// Debug, the CLI's per-run summaries at Info/Notice.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})
}

// New returns a named logger. accelopt.Build names it after the
// accelerator kind ("octree", "bvh", "kdtree"); cmd/accelbench names its
// own "accelbench".
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

func setSink(sink io.Writer) {
	backend := logging.NewLogBackend(sink, "", 0)
	backendWithFormatter := logging.NewBackendFormatter(backend, format)
	leveledBackend = logging.AddModuleLevel(backendWithFormatter)
	leveledBackend.SetLevel(logging.INFO, "")
	logging.SetBackend(leveledBackend)
}

// SetLevel raises or lowers the verbosity of every logger returned by New.
// cmd/accelbench calls this from its -v/-vv flags before building any
// accelerator.
func SetLevel(level Level) {
	var loggerLevel logging.Level
	switch level {
	case Debug:
		loggerLevel = logging.DEBUG
	case Info:
		loggerLevel = logging.INFO
	case Notice:
		loggerLevel = logging.NOTICE
	}
	leveledBackend.SetLevel(loggerLevel, "")
}

func init() {
	setSink(os.Stdout)
	SetLevel(Notice)
}
