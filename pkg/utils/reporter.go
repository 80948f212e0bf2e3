// pkg/utils/reporter.go - progress reporting shared by the CLI and the window.

package utils

// Reporter receives progress from a running update.
type Reporter interface {
	Message(txt string)
	Detail(txt string)
	Percent(pct int) // -1 = indeterminate
	Error(err error)
}

// NoOpReporter implements Reporter but does nothing (for headless operation)
type NoOpReporter struct{}

func NewNoOpReporter() Reporter {
	return &NoOpReporter{}
}

func (r *NoOpReporter) Message(txt string) {}
func (r *NoOpReporter) Detail(txt string)  {}
func (r *NoOpReporter) Percent(pct int)    {}
func (r *NoOpReporter) Error(err error)    {}
