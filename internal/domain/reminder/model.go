package reminder

import (
	"encoding/json"
	"errors"
	"strings"
)

// Domain errors
var (
	ErrFieldsRequired = errors.New("message, remind time and exam are required")
)

// Reminder is a reminder document owned by the backend.
// The backend may send examId either as an id string or as the populated exam.
type Reminder struct {
	ID        string
	Message   string
	RemindAt  string
	ExamID    string
	ExamTitle string
}

// UnmarshalJSON decodes the backend representation.
// PRE: data is a JSON object
// POST: ExamTitle is set only when examId was a populated document
func (r *Reminder) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string          `json:"id"`
		DocID    string          `json:"_id"`
		Message  string          `json:"message"`
		RemindAt string          `json:"remindAt"`
		ExamID   json.RawMessage `json:"examId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Reminder{ID: raw.ID, Message: raw.Message, RemindAt: raw.RemindAt}
	if r.ID == "" {
		r.ID = raw.DocID
	}
	if len(raw.ExamID) == 0 || string(raw.ExamID) == "null" {
		return nil
	}
	var id string
	if err := json.Unmarshal(raw.ExamID, &id); err == nil {
		r.ExamID = id
		return nil
	}
	var populated struct {
		ID    string `json:"id"`
		DocID string `json:"_id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(raw.ExamID, &populated); err != nil {
		return err
	}
	r.ExamID = populated.ID
	if r.ExamID == "" {
		r.ExamID = populated.DocID
	}
	r.ExamTitle = populated.Title
	return nil
}

// CreateInput is the body sent to the backend to create a reminder.
type CreateInput struct {
	Message  string `json:"message"`
	RemindAt string `json:"remindAt"`
	ExamID   string `json:"examId"`
}

// Validate checks that every field is present.
// PRE: CreateInput struct is populated
// POST: Returns ErrFieldsRequired if any field is blank
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Message) == "" ||
		strings.TrimSpace(in.RemindAt) == "" ||
		strings.TrimSpace(in.ExamID) == "" {
		return ErrFieldsRequired
	}
	return nil
}
