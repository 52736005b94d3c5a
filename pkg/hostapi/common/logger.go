package common

// Logger is handed to remote controls through the context snapshot.
//
// Templates use named placeholders ("{Control} mounted in {Elapsed}") that are
// filled positionally from args. Args may be strings or structured values.
// Implementations must never panic or surface an error to the caller.
type Logger interface {
	// Error logs at error level. err may be nil when there is no exception
	// to attach.
	Error(err error, template string, args ...any)
	Warning(template string, args ...any)
	Info(template string, args ...any)
	Debug(template string, args ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Error(error, string, ...any) {}
func (NopLogger) Warning(string, ...any)      {}
func (NopLogger) Info(string, ...any)         {}
func (NopLogger) Debug(string, ...any)        {}
