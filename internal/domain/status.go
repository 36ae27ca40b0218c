package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the lifecycle stage of a task. Its value is the wire name.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// maxStatusCodeLength is the width of the status column.
const maxStatusCodeLength = 10

var statusCodes = map[Status]string{
	StatusTodo:       "TODO",
	StatusInProgress: "INPROGRESS",
	StatusDone:       "DONE",
}

// AllStatuses returns every status in declaration order.
func AllStatuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

// StatusError reports a token that names no known status.
type StatusError struct {
	Value string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Invalid status: %s. Status must be one of TODO, IN_PROGRESS or DONE", e.Value)
}

// ParseStatus maps a wire name to a Status. Matching is case-sensitive.
func ParseStatus(name string) (Status, error) {
	s := Status(name)
	if _, ok := statusCodes[s]; !ok {
		return "", &StatusError{Value: name}
	}
	return s, nil
}

// Code returns the short form stored in the database.
func (s Status) Code() string {
	code := statusCodes[s]
	if len(code) > maxStatusCodeLength {
		code = code[:maxStatusCodeLength]
	}
	return code
}

// StatusFromCode maps a stored code back to its Status.
func StatusFromCode(code string) (Status, error) {
	for _, s := range AllStatuses() {
		if strings.EqualFold(s.Code(), code) {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid stored status code %q", code)
}

// StatusCodes returns the stored codes for statuses, or for every status
// when statuses is empty.
func StatusCodes(statuses []Status) []string {
	if len(statuses) == 0 {
		statuses = AllStatuses()
	}
	codes := make([]string, 0, len(statuses))
	for _, s := range statuses {
		codes = append(codes, s.Code())
	}
	return codes
}

func (s *Status) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return &StatusError{Value: string(b)}
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
