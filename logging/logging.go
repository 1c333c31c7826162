package logging

import (
	"io"
	"os"

	gologging "github.com/op/go-logging"
)

var format = gologging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{module} ▶ %{level:.4s} %{id:03x}%{color:reset} %{message}`,
)

// Log is the logger of the main program
var Log = For("main")

// For returns the logger of a module
func For(module string) *gologging.Logger {
	return gologging.MustGetLogger(module)
}

// Init installs the colored stderr backend. Debug output is only shown when
// debug is set.
func Init(debug bool) {
	InitWriter(os.Stderr, debug)
}

// InitWriter installs a backend writing to w
func InitWriter(w io.Writer, debug bool) {
	backend := gologging.NewLogBackend(w, "", 0)
	leveled := gologging.AddModuleLevel(gologging.NewBackendFormatter(backend, format))

	level := gologging.INFO
	if debug {
		level = gologging.DEBUG
	}
	leveled.SetLevel(level, "")
	gologging.SetBackend(leveled)
}

// Silence drops everything below CRITICAL, used by tests and the stdio MCP
// server whose stdout must stay clean.
func Silence() {
	backend := gologging.AddModuleLevel(gologging.NewLogBackend(io.Discard, "", 0))
	backend.SetLevel(gologging.CRITICAL, "")
	gologging.SetBackend(backend)
}
