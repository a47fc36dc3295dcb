package project

import (
	"time"

	"git.home.luguber.info/inful/cbuild/internal/eventstore"
	"git.home.luguber.info/inful/cbuild/internal/notify"
	"git.home.luguber.info/inful/cbuild/internal/target"
)

// Report is the result of one project build.
type Report struct {
	BuildID   string
	Project   string
	Version   string
	Toolchain string
	Outcomes  []*target.Outcome
	StartedAt time.Time
	Duration  time.Duration
}

// Succeeded reports whether every target finished without failure.
func (r *Report) Succeeded() bool {
	if r == nil {
		return false
	}
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			return false
		}
	}
	return true
}

// FailedTargets returns the names of targets that ended Failed.
func (r *Report) FailedTargets() []string {
	var names []string
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			names = append(names, o.Target)
		}
	}
	return names
}

// Compiled counts the sources handed to the compiler across all targets.
func (r *Report) Compiled() int {
	n := 0
	for _, o := range r.Outcomes {
		n += len(o.Compiled)
	}
	return n
}

// Status is the history and notification status string for the report.
func (r *Report) Status() string {
	if r.Succeeded() {
		return eventstore.StatusSucceeded
	}
	return eventstore.StatusFailed
}

func (r *Report) message() notify.Message {
	msg := notify.Message{
		BuildID:    r.BuildID,
		Project:    r.Project,
		Version:    r.Version,
		Status:     r.Status(),
		DurationMS: r.Duration.Milliseconds(),
		Timestamp:  r.StartedAt.Add(r.Duration),
	}
	for _, o := range r.Outcomes {
		msg.Targets = append(msg.Targets, notify.TargetStatus{
			Name:     o.Target,
			State:    string(o.State),
			Compiled: len(o.Compiled),
			Linked:   o.Linked,
			Failures: len(o.Failures),
		})
	}
	return msg
}

func targetCompleted(o *target.Outcome) eventstore.TargetCompleted {
	payload := eventstore.TargetCompleted{
		Target:     o.Target,
		State:      string(o.State),
		Sources:    len(o.Sources),
		Compiled:   o.Compiled,
		Linked:     o.Linked,
		DurationMS: o.Duration.Milliseconds(),
	}
	for _, f := range o.Failures {
		tf := eventstore.TargetFailure{Path: f.Path, Stage: string(f.Stage), ExitCode: f.ExitCode, Message: f.Stderr}
		if tf.Message == "" && f.Err != nil {
			tf.Message = f.Err.Error()
		}
		payload.Failures = append(payload.Failures, tf)
	}
	return payload
}
