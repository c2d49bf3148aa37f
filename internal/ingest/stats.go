package ingest

import (
	"time"

	"github.com/jonesrussell/yelp-search/internal/elasticsearch"
	"github.com/jonesrussell/yelp-search/internal/schema"
)

// DocumentError describes one document that was not indexed.
type DocumentError struct {
	Line   int    `json:"line"`
	ID     string `json:"id,omitempty"`
	Status int    `json:"status,omitempty"`
	Type   string `json:"type,omitempty"`
	Reason string `json:"reason"`
}

// Stats reports the outcome of loading one file.
type Stats struct {
	RunID       string
	Entity      schema.EntityType
	Index       string
	File        string
	Indexed     int
	Failed      int
	Batches     int
	Errors      []DocumentError
	StartedAt   time.Time
	Duration    time.Duration
	Aborted     bool
	AbortReason string
}

// Total returns the number of documents read from the source.
func (s *Stats) Total() int {
	return s.Indexed + s.Failed
}

func (s *Stats) addRejected(action Action, maxSamples int) {
	s.Failed++
	if len(s.Errors) < maxSamples {
		s.Errors = append(s.Errors, DocumentError{Line: action.Line, Reason: action.Err.Error()})
	}
}

func (s *Stats) addFailure(batch []Action, f elasticsearch.BulkItemError, maxSamples int) {
	s.Failed++
	if len(s.Errors) >= maxSamples {
		return
	}

	docErr := DocumentError{ID: f.ID, Status: f.Status, Type: f.Type, Reason: f.Reason}
	if f.Position >= 0 && f.Position < len(batch) {
		docErr.Line = batch[f.Position].Line
		if docErr.ID == "" {
			docErr.ID = batch[f.Position].ID
		}
	}
	s.Errors = append(s.Errors, docErr)
}
