package eventstore

import (
	"encoding/json"
	"time"

	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
)

// BuildStarted is recorded before the first target is built.
type BuildStarted struct {
	Project   string   `json:"project"`
	Version   string   `json:"version"`
	Toolchain string   `json:"toolchain"`
	BuildDir  string   `json:"build_dir"`
	Targets   []string `json:"targets"`
}

// TargetFailure is the persisted form of one per-file failure.
type TargetFailure struct {
	Path     string `json:"path"`
	Stage    string `json:"stage"`
	ExitCode int    `json:"exit_code,omitempty"`
	Message  string `json:"message,omitempty"`
}

// TargetCompleted is recorded once per target, whatever its final state.
type TargetCompleted struct {
	Target     string          `json:"target"`
	State      string          `json:"state"`
	Sources    int             `json:"sources"`
	Compiled   []string        `json:"compiled,omitempty"`
	Linked     bool            `json:"linked"`
	Failures   []TargetFailure `json:"failures,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

// BuildCompleted is recorded when every target has been visited.
type BuildCompleted struct {
	Status        string   `json:"status"`
	FailedTargets []string `json:"failed_targets,omitempty"`
	Compiled      int      `json:"compiled"`
	DurationMS    int64    `json:"duration_ms"`
}

// BuildFailed is recorded when the build aborted before visiting every target.
type BuildFailed struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// NewEvent creates an event of eventType carrying the JSON encoding of payload.
func NewEvent(buildID, eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, ferrors.HistoryError("failed to marshal event payload").
			WithCause(err).
			WithContext("build_id", buildID).
			WithContext("event_type", eventType).
			Build()
	}
	return Event{
		BuildID:   buildID,
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   data,
	}, nil
}
