// Package domain holds the division bot's types, ports and error kinds
package domain

import "context"

// SourcePort reads divisions from the remote votes API
type SourcePort interface {
	ListDivisions(ctx context.Context) ([]DivisionRecord, error)
	FetchDivision(ctx context.Context, divisionID int) (DivisionRecord, error)
}

// MappingStore persists division to thread mappings and last seen markers.
// Every write commits on its own
type MappingStore interface {
	// FindMapping reports found=false, err=nil when the division is untracked
	FindMapping(ctx context.Context, divisionID int) (m DivisionMapping, found bool, err error)
	CreateMapping(ctx context.Context, divisionID int, threadID ThreadID) (DivisionMapping, error)
	LastSeen(ctx context.Context, divisionID int) (marker string, found bool, err error)
	RecordUpdateSeen(ctx context.Context, divisionID int, marker string) error
}

// ThreadPort is the chat platform
type ThreadPort interface {
	CreateThread(ctx context.Context, title string) (ThreadID, error)
	PostUpdate(ctx context.Context, threadID ThreadID, content string) error
}

// ReconcilerPort runs a single pass
type ReconcilerPort interface {
	RunPass(ctx context.Context, trigger string) (PassReport, error)
}

// SchedulerPort drives passes on a fixed interval and on demand
type SchedulerPort interface {
	Run(ctx context.Context) error
	Trigger(ctx context.Context, reason string) (PassReport, error)
}

// StatusPort exposes read models for the admin API
type StatusPort interface {
	LastPass() (PassReport, bool)
	Division(ctx context.Context, divisionID int) (DivisionView, error)
}

// ViewPort reads the admin view of one tracked division
type ViewPort interface {
	View(ctx context.Context, divisionID int) (DivisionView, error)
}
