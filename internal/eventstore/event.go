package eventstore

import (
	"encoding/json"
	"time"
)

// Event types written by the project driver.
const (
	TypeBuildStarted    = "BuildStarted"
	TypeTargetCompleted = "TargetCompleted"
	TypeBuildCompleted  = "BuildCompleted"
	TypeBuildFailed     = "BuildFailed"
)

// Event is one persisted build event. Payload holds the JSON encoding of one of
// the typed payloads below.
type Event struct {
	ID        int64
	BuildID   string
	Type      string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}
