package domain

import "time"

// DivisionRecord is a division as the remote source reports it. Never persisted
type DivisionRecord struct {
	DivisionID         int
	Title              string
	PublicationUpdated string

	// Date and Number are informational; reconciliation never branches on them
	Date   string
	Number int
}

// ThreadID is the chat platform's opaque thread identifier (a snowflake, kept as text)
type ThreadID string

// DivisionMapping binds a remote division to the thread created for it.
// DivisionID is unique and ThreadID never changes once written
type DivisionMapping struct {
	ID         int64
	DivisionID int
	ThreadID   ThreadID
}

// DivisionUpdate is the last publication marker processed for a tracked division
type DivisionUpdate struct {
	ID                 int64
	DivisionID         int
	PublicationUpdated string
}

// DivisionView is the admin read model for one tracked division
type DivisionView struct {
	DivisionID         int       `json:"division_id"`
	ThreadID           ThreadID  `json:"thread_id"`
	PublicationUpdated string    `json:"publication_updated,omitempty"`
	Seen               bool      `json:"seen"`
	FetchedAt          time.Time `json:"fetched_at"`
}

// Outcome is what a pass did with one division
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// DivisionFailure records a division a pass could not reconcile
type DivisionFailure struct {
	DivisionID int    `json:"division_id"`
	Kind       string `json:"kind"`
	Error      string `json:"error"`
}

// PassReport summarizes one reconciliation pass. It is observational only;
// the next pass never reads it
type PassReport struct {
	PassID     string            `json:"pass_id"`
	Trigger    string            `json:"trigger"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Listed     int               `json:"listed"`
	Created    int               `json:"created"`
	Updated    int               `json:"updated"`
	Unchanged  int               `json:"unchanged"`
	Duplicates int               `json:"duplicates"`
	Failed     int               `json:"failed"`
	Failures   []DivisionFailure `json:"failures,omitempty"`
	Aborted    bool              `json:"aborted"`
	Error      string            `json:"error,omitempty"`
}

// Count tallies an outcome
func (r *PassReport) Count(o Outcome) {
	switch o {
	case OutcomeCreated:
		r.Created++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeUnchanged:
		r.Unchanged++
	case OutcomeDuplicate:
		r.Duplicates++
	case OutcomeFailed:
		r.Failed++
	}
}

// Processed is the number of divisions that reached an outcome
func (r PassReport) Processed() int {
	return r.Created + r.Updated + r.Unchanged + r.Duplicates + r.Failed
}
