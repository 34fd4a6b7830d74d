package sequencer

import (
	"iter"
	"slices"
	"time"
)

type (
	// Alert is a message shown to the user for a while. Alerts with a Name
	// replace the previous alert with the same name.
	Alert struct {
		Name     string
		Message  string
		Priority AlertPriority
		Duration time.Duration
	}

	AlertPriority int

	// Alerts is the list of alerts currently shown.
	Alerts struct {
		list []Alert
	}
)

const (
	Info AlertPriority = iota
	Warning
	Error
)

const defaultAlertDuration = 3 * time.Second

func (p AlertPriority) String() string {
	switch p {
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "info"
}

func (a *Alerts) Add(message string, priority AlertPriority) {
	a.Push(Alert{Message: message, Priority: priority, Duration: defaultAlertDuration})
}

func (a *Alerts) AddNamed(name, message string, priority AlertPriority) {
	a.Push(Alert{Name: name, Message: message, Priority: priority, Duration: defaultAlertDuration})
}

// Push adds the alert, replacing an alert with the same name.
func (a *Alerts) Push(alert Alert) {
	if alert.Name != "" {
		for i := range a.list {
			if a.list[i].Name == alert.Name {
				a.list[i] = alert
				return
			}
		}
	}
	a.list = append(a.list, alert)
}

func (a *Alerts) ClearNamed(name string) {
	a.list = slices.DeleteFunc(a.list, func(x Alert) bool { return x.Name == name })
}

// Update ages the alerts by dt and removes the expired ones. Returns true if
// anything was removed.
func (a *Alerts) Update(dt time.Duration) bool {
	n := len(a.list)
	for i := range a.list {
		a.list[i].Duration -= dt
	}
	a.list = slices.DeleteFunc(a.list, func(x Alert) bool { return x.Duration <= 0 })
	return len(a.list) != n
}

func (a *Alerts) Len() int { return len(a.list) }

// Iterate yields the alerts, highest priority first.
func (a *Alerts) Iterate() iter.Seq[Alert] {
	sorted := slices.Clone(a.list)
	slices.SortStableFunc(sorted, func(x, y Alert) int { return int(y.Priority - x.Priority) })
	return slices.Values(sorted)
}
