package exam

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// DefaultSortBy is the sort field used when the list request names none.
const DefaultSortBy = "date"

// Domain errors
var (
	ErrInvalidPriority = errors.New("priority must be a whole number")
)

// Exam is an exam document owned by the backend.
type Exam struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Priority int    `json:"priority"`
}

// Day returns the calendar date portion of Date (YYYY-MM-DD) when Date is an ISO timestamp.
// INVARIANT: Exam fields are not mutated
func (e Exam) Day() string {
	if len(e.Date) >= 10 && e.Date[4] == '-' && e.Date[7] == '-' {
		return e.Date[:10]
	}
	return e.Date
}

// UnmarshalJSON accepts both "id" and "_id" as the identifier key.
func (e *Exam) UnmarshalJSON(data []byte) error {
	type alias Exam
	var raw struct {
		alias
		DocID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Exam(raw.alias)
	if e.ID == "" {
		e.ID = raw.DocID
	}
	return nil
}

// CreateInput is the body sent to the backend to create an exam.
type CreateInput struct {
	Title    string `json:"title"`
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Priority int    `json:"priority"`
}

// NewCreateInput builds a CreateInput from raw form values.
// An empty priority means 0.
// PRE: none
// POST: Returns ErrInvalidPriority if priority is present but not an integer
func NewCreateInput(title, subject, date, priority string) (CreateInput, error) {
	p := 0
	if s := strings.TrimSpace(priority); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return CreateInput{}, ErrInvalidPriority
		}
		p = n
	}
	return CreateInput{
		Title:    title,
		Subject:  subject,
		Date:     date,
		Priority: p,
	}, nil
}

// SortByOrDefault returns sortBy, or DefaultSortBy when it is blank.
func SortByOrDefault(sortBy string) string {
	if strings.TrimSpace(sortBy) == "" {
		return DefaultSortBy
	}
	return sortBy
}
