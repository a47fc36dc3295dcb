package eventstore

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Build status values as they appear in summaries and BuildCompleted payloads.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusAborted   = "aborted"
)

// BuildSummary is a read model summarizing one project build.
type BuildSummary struct {
	BuildID       string        `json:"build_id"`
	Project       string        `json:"project"`
	Toolchain     string        `json:"toolchain"`
	Status        string        `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	Duration      time.Duration `json:"duration,omitempty"`
	Targets       int           `json:"targets"`
	Compiled      int           `json:"compiled"`
	FailedTargets []string      `json:"failed_targets,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

// BuildHistoryProjection maintains an in-memory view of build history,
// reconstructed from events stored in the event store.
type BuildHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	builds  map[string]*BuildSummary
	history []*BuildSummary // newest first
	maxSize int
}

// NewBuildHistoryProjection creates a new projection backed by the given store.
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &BuildHistoryProjection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from the events of the most recent
// builds, up to the projection's size.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.RecentBuilds(ctx, p.maxSize)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.builds = make(map[string]*BuildSummary)
	p.history = nil
	for _, e := range events {
		p.applyLocked(e)
	}
	slices.SortStableFunc(p.history, func(a, b *BuildSummary) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	p.trimLocked()
	return nil
}

// Apply processes a single event and updates the projection.
func (p *BuildHistoryProjection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e)
	p.trimLocked()
}

func (p *BuildHistoryProjection) applyLocked(e Event) {
	if e.BuildID == "" {
		return
	}

	summary, ok := p.builds[e.BuildID]
	if !ok {
		summary = &BuildSummary{BuildID: e.BuildID, Status: StatusRunning, StartedAt: e.Timestamp}
		p.builds[e.BuildID] = summary
		p.history = append([]*BuildSummary{summary}, p.history...)
	}

	switch e.Type {
	case TypeBuildStarted:
		var payload BuildStarted
		if err := e.Decode(&payload); err == nil {
			summary.Project = payload.Project
			summary.Toolchain = payload.Toolchain
			summary.Targets = len(payload.Targets)
		}
		summary.StartedAt = e.Timestamp

	case TypeTargetCompleted:
		var payload TargetCompleted
		if err := e.Decode(&payload); err == nil {
			summary.Compiled += len(payload.Compiled)
		}

	case TypeBuildCompleted:
		var payload BuildCompleted
		if err := e.Decode(&payload); err == nil {
			summary.Status = payload.Status
			summary.FailedTargets = payload.FailedTargets
		}
		p.completeLocked(summary, e.Timestamp)

	case TypeBuildFailed:
		var payload BuildFailed
		if err := e.Decode(&payload); err == nil {
			summary.ErrorMessage = payload.Error
		}
		summary.Status = StatusAborted
		p.completeLocked(summary, e.Timestamp)
	}
}

func (p *BuildHistoryProjection) completeLocked(s *BuildSummary, at time.Time) {
	s.CompletedAt = &at
	s.Duration = at.Sub(s.StartedAt)
	if s.Status == "" || s.Status == StatusRunning {
		s.Status = StatusSucceeded
	}
}

func (p *BuildHistoryProjection) trimLocked() {
	if len(p.history) <= p.maxSize {
		return
	}
	for _, dropped := range p.history[p.maxSize:] {
		delete(p.builds, dropped.BuildID)
	}
	p.history = p.history[:p.maxSize]
}

// GetHistory returns up to limit builds, newest first. A limit <= 0 returns all.
func (p *BuildHistoryProjection) GetHistory(limit int) []BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := len(p.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]BuildSummary, 0, n)
	for _, s := range p.history[:n] {
		out = append(out, *s)
	}
	return out
}

// GetBuild returns the summary for a specific build.
func (p *BuildHistoryProjection) GetBuild(buildID string) (BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.builds[buildID]
	if !ok {
		return BuildSummary{}, false
	}
	return *s, true
}
