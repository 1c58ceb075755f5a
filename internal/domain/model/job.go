// Package model defines the core data types shared by the artstash ingestion service.
package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// JobStatus represents the current status of a generation job.
type JobStatus string

const (
	// JobStatusQueued indicates the job was accepted and is waiting on the provider.
	JobStatusQueued JobStatus = "queued"
	// JobStatusProcessing indicates the provider reported the job as running.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusSucceeded indicates the job finished and its outputs were handled.
	JobStatusSucceeded JobStatus = "succeeded"
	// JobStatusFailed indicates the job finished with an error.
	JobStatusFailed JobStatus = "failed"
)

// Valid returns true if the JobStatus is one of the known states.
func (s JobStatus) Valid() bool {
	return s == JobStatusQueued || s == JobStatusProcessing ||
		s == JobStatusSucceeded || s == JobStatusFailed
}

// Terminal returns true if the status is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// CanTransition reports whether moving from s to next is a legal edge of the
// job state machine. Illegal edges are treated as no-ops by the ledger, never
// as errors, so duplicate deliveries stay harmless.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusQueued:
		return next == JobStatusProcessing || next.Terminal()
	case JobStatusProcessing:
		return next.Terminal()
	default:
		return false
	}
}

// Job represents a tracked generation job keyed by the provider correlation id.
type Job struct {
	ID          string          `json:"id"                     db:"id"`
	ExternalID  string          `json:"external_id"            db:"external_id"`
	OwnerID     string          `json:"owner_id"               db:"owner_id"`
	Model       string          `json:"model"                  db:"model"`
	Prompt      *string         `json:"prompt,omitempty"       db:"prompt"`
	Status      JobStatus       `json:"status"                 db:"status"`
	Output      json.RawMessage `json:"output,omitempty"       db:"output"`
	ErrorText   *string         `json:"error,omitempty"        db:"error_message"`
	Metadata    Metadata        `json:"metadata"               db:"metadata"`
	CreatedAt   time.Time       `json:"created_at"             db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"             db:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// CreateJobRequest represents a request to record a new job in the ledger.
type CreateJobRequest struct {
	OwnerID    string   `json:"owner_id"`
	ExternalID string   `json:"external_id"`
	Model      string   `json:"model"`
	Prompt     *string  `json:"prompt,omitempty"`
	Metadata   Metadata `json:"metadata,omitempty"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return errors.New("owner id is required")
	}
	if strings.TrimSpace(r.ExternalID) == "" {
		return errors.New("external id is required")
	}
	if strings.TrimSpace(r.Model) == "" {
		return errors.New("model is required")
	}
	return nil
}

// TransitionParams groups the inputs of a ledger status transition.
type TransitionParams struct {
	ExternalID string
	Status     JobStatus
	// Output is stored only when Status is terminal.
	Output json.RawMessage
	// ErrorText is stored only when Status is terminal.
	ErrorText *string
	// MetadataPatch is merged into job metadata even when the job is already
	// terminal, so duplicate deliveries can still amend counters.
	MetadataPatch Metadata
}

// Validate validates the TransitionParams fields.
func (p *TransitionParams) Validate() error {
	if strings.TrimSpace(p.ExternalID) == "" {
		return errors.New("external id is required")
	}
	if !p.Status.Valid() {
		return errors.New("invalid job status")
	}
	return nil
}
