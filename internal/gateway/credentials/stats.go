package credentials

import "time"

// CredentialStatus is a point-in-time view of one credential's health.
type CredentialStatus struct {
	Label             string        `json:"label"`
	SourceID          string        `json:"source_id"`
	Active            int           `json:"active"`
	ConsecutiveLimits int           `json:"consecutive_limits"`
	TotalRequests     int64         `json:"total_requests"`
	TotalLimited      int64         `json:"total_limited"`
	Cooling           bool          `json:"cooling"`
	CooldownRemaining time.Duration `json:"cooldown_remaining"`
	Cooldown          time.Duration `json:"cooldown"`
}

// SubsystemStatus reports route health for one subsystem tag.
type SubsystemStatus struct {
	Subsystem        string `json:"subsystem"`
	PrimaryLabel     string `json:"primary_label,omitempty"`
	PrimaryAvailable bool   `json:"primary_available"`
	HasFallback      bool   `json:"has_fallback"`
}

// PoolStatus aggregates credential and route health for dashboards.
// Read-only, no side effects, safe to poll frequently.
type PoolStatus struct {
	Credentials         []CredentialStatus `json:"credentials"`
	Subsystems          []SubsystemStatus  `json:"subsystems"`
	InFlightInteractive int64              `json:"in_flight_interactive"`
}

// Snapshot captures the pool's current state. The in-flight Interactive
// gauge is filled in by the owning client, which tracks logical calls
// rather than credential acquisitions.
func (r *Registry) Snapshot() PoolStatus {
	var status PoolStatus

	r.mu.Lock()
	order := make([]Subsystem, len(r.order))
	copy(order, r.order)
	r.mu.Unlock()

	for _, sub := range order {
		if c := r.Get(sub); c != nil {
			status.Credentials = append(status.Credentials, c.Status())
		}
	}

	for _, sub := range Subsystems() {
		rt := routeFor(sub)
		ss := SubsystemStatus{
			Subsystem:   string(sub),
			HasFallback: rt.fallback != "" && r.Get(rt.fallback) != nil,
		}
		if primary := r.Get(rt.primary); primary != nil {
			ss.PrimaryLabel = primary.Label()
			ss.PrimaryAvailable = !primary.IsCooling()
		}
		status.Subsystems = append(status.Subsystems, ss)
	}

	return status
}
