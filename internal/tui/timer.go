package tui

import (
	"errors"
	"math"
	"time"

	"github.com/sadopc/billr/internal/store"
)

var errTimerRunning = errors.New("timer already running")

// timerState tracks the current state of the timer.
type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

// timerModel measures billable time; stopping it books a time entry priced at
// the default hourly rate.
type timerModel struct {
	store *store.Store
	now   func() time.Time

	state     timerState
	startTime time.Time
	pausedAt  time.Time
	pauseGap  time.Duration

	client      string
	project     string
	description string

	// Idle detection
	lastActivity time.Time
	idleTimeout  time.Duration
	isIdle       bool
}

func newTimerModel(s *store.Store) timerModel {
	return timerModel{
		store:        s,
		now:          time.Now,
		state:        timerStopped,
		lastActivity: time.Now(),
		idleTimeout:  5 * time.Minute,
	}
}

func (t *timerModel) start(client, project, description string) error {
	if t.state != timerStopped {
		return errTimerRunning
	}
	now := t.now()
	t.state = timerRunning
	t.startTime = now
	t.pauseGap = 0
	t.client = client
	t.project = project
	t.description = description
	t.lastActivity = now
	t.isIdle = false
	return nil
}

// stop books the elapsed time, rounded to hundredths of an hour. It returns
// nil when the timer was not running.
func (t *timerModel) stop() (*store.TimeEntry, error) {
	if t.state == timerStopped {
		return nil, nil
	}
	hours := math.Round(t.currentElapsed().Hours()*100) / 100
	rate := t.store.DefaultRate()
	y, m, d := t.startTime.Date()

	entry, err := t.store.CreateEntry(store.TimeEntry{
		Date:        time.Date(y, m, d, 0, 0, 0, 0, time.Local),
		Client:      t.client,
		Project:     t.project,
		Description: t.description,
		Hours:       hours,
		Rate:        rate,
		Amount:      hours * rate,
	})
	if err != nil {
		return nil, err
	}
	t.state = timerStopped
	t.pauseGap = 0
	return entry, nil
}

func (t *timerModel) pause() {
	if t.state != timerRunning {
		return
	}
	t.state = timerPaused
	t.pausedAt = t.now()
}

func (t *timerModel) resume() {
	if t.state != timerPaused {
		return
	}
	t.pauseGap += t.now().Sub(t.pausedAt)
	t.state = timerRunning
	t.isIdle = false
	t.lastActivity = t.now()
}

func (t *timerModel) toggle() {
	switch t.state {
	case timerRunning:
		t.pause()
	case timerPaused:
		t.resume()
	}
}

func (t *timerModel) tick() {
	if t.state == timerRunning && !t.isIdle && t.now().Sub(t.lastActivity) > t.idleTimeout {
		t.isIdle = true
		t.pause()
	}
}

func (t *timerModel) recordActivity() {
	t.lastActivity = t.now()
	if t.isIdle && t.state == timerPaused {
		t.resume()
	}
}

func (t timerModel) running() bool {
	return t.state != timerStopped
}

func (t timerModel) paused() bool {
	return t.state == timerPaused
}

func (t timerModel) currentElapsed() time.Duration {
	switch t.state {
	case timerPaused:
		return t.pausedAt.Sub(t.startTime) - t.pauseGap
	case timerRunning:
		return t.now().Sub(t.startTime) - t.pauseGap
	}
	return 0
}
