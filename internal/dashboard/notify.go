package dashboard

import (
	"github.com/sadopc/billr/internal/log"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Notifier surfaces a message to the user.
type Notifier interface {
	Notify(msg string, sev Severity)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string, sev Severity)

func (f NotifierFunc) Notify(msg string, sev Severity) { f(msg, sev) }

// LogNotifier writes notifications to a logger. It is the default when no
// other notifier is configured.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(msg string, sev Severity) {
	if n.Logger == nil {
		return
	}
	switch sev {
	case SeverityError:
		n.Logger.Error(msg)
	case SeverityWarning:
		n.Logger.Warn(msg)
	default:
		n.Logger.Info(msg)
	}
}
