package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Kind distinguishes top-level documents from documents attached to one.
type Kind string

const (
	KindPrimary   Kind = "primary"
	KindSecondary Kind = "secondary"
)

// Status is the terminal outcome of a run. It is empty while the run is in progress.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusIrrelevant Status = "irrelevant"
	StatusError      Status = "error"
)

// DefaultIrrelevantReason is reported when the relevance classifier rejects a
// document without giving a reason.
const DefaultIrrelevantReason = "not related to the energy market"

// Request is the immutable input of one run.
type Request struct {
	Data        []byte
	Filename    string
	ContentType string
	Kind        Kind
	ParentID    *uuid.UUID
}

// Relevance is the relevance classifier's verdict.
type Relevance struct {
	Related    bool    `json:"is_related"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// KeyPoint is one topic and its description.
type KeyPoint struct {
	Topic       string
	Description string
}

// KeyPoints is an ordered topic to description mapping. It encodes as a JSON
// object whose key order matches the slice order.
type KeyPoints []KeyPoint

// MarshalJSON encodes the points as an object, preserving order.
func (kp KeyPoints) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range kp {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Topic)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Description)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of string values in document order.
// A repeated topic keeps its first position and its last description.
func (kp *KeyPoints) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*kp = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("key points: expected object, got %v", tok)
	}

	out := KeyPoints{}
	index := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		topic := tok.(string)

		var desc string
		if err := dec.Decode(&desc); err != nil {
			return fmt.Errorf("key points: topic %q: %w", topic, err)
		}

		if i, seen := index[topic]; seen {
			out[i].Description = desc
			continue
		}
		index[topic] = len(out)
		out = append(out, KeyPoint{Topic: topic, Description: desc})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*kp = out
	return nil
}

// State is the mutable record of one run. It is never shared between runs.
type State struct {
	Text           string
	Kind           Kind
	ParentID       *uuid.UUID
	ParentContext  *string
	Summary        string
	Relevant       bool
	RelevanceScore float64
	Reasons        []string
	Subjects       []string
	Theme          string
	KeyPoints      KeyPoints
	Status         Status
	ErrorMessage   string

	err error
}

func (s *State) fail(err error) {
	s.Status = StatusError
	s.ErrorMessage = err.Error()
	s.err = err
}

// Result is the terminal snapshot returned to the caller.
type Result struct {
	Status         Status    `json:"status"`
	Summary        string    `json:"summary"`
	Subjects       []string  `json:"subjects"`
	Theme          string    `json:"theme"`
	KeyPoints      KeyPoints `json:"key_points"`
	RelevanceScore float64   `json:"relevance_score"`
	Reasons        []string  `json:"reasons"`
	ErrorMessage   string    `json:"error_message,omitempty"`

	// Err is the wrapped step error when Status is StatusError.
	Err error `json:"-"`
}

// result snapshots the state. Collections are never nil so the JSON shape
// does not depend on where the run stopped.
func (s *State) result() Result {
	return Result{
		Status:         s.Status,
		Summary:        s.Summary,
		Subjects:       nonNil(s.Subjects),
		Theme:          s.Theme,
		KeyPoints:      nonNil(s.KeyPoints),
		RelevanceScore: s.RelevanceScore,
		Reasons:        nonNil(s.Reasons),
		ErrorMessage:   s.ErrorMessage,
		Err:            s.err,
	}
}

func nonNil[S ~[]E, E any](v S) S {
	if v == nil {
		return S{}
	}
	return v
}
