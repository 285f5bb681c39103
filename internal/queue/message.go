package queue

import (
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/citegraph/internal/audit"
)

// AuditJobMsg is the body of an audit_queue message.
type AuditJobMsg struct {
	audit.Request
	RequestID string `json:"requestId,omitempty"`
}

// AuditCompletedMsg is published on CompletedTopic after a job finished.
type AuditCompletedMsg struct {
	RequestID      string   `json:"requestId,omitempty"`
	AuditID        int64    `json:"auditId"`
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	CitationCount  int      `json:"citationCount"`
	OverallQuality float64  `json:"overallQuality"`
	RedFlags       int      `json:"redFlags"`
	GraphHash      string   `json:"graphHash"`
	Reports        []string `json:"reports,omitempty"`
}

// PermanentError marks a message that will never succeed, so it skips the
// retry queue.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func ParseAuditJob(body []byte) (AuditJobMsg, error) {
	var msg AuditJobMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return AuditJobMsg{}, &PermanentError{Err: fmt.Errorf("decode audit job: %w", err)}
	}
	if err := msg.Validate(); err != nil {
		return AuditJobMsg{}, &PermanentError{Err: err}
	}
	return msg, nil
}
