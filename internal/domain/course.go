package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnknownInstructorName is shown when a course arrives without instructors.
const UnknownInstructorName = "Unknown Instructor"

// CourseID identifies a course. Course APIs and older stores emit both
// numeric and string ids, so both JSON forms decode to the same value.
type CourseID string

// String implements fmt.Stringer.
func (id CourseID) String() string { return string(id) }

// UnmarshalJSON accepts a JSON string or a JSON number.
func (id *CourseID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("course id: empty value")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("course id: %w", err)
		}
		*id = CourseID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("course id: must be a string or number: %w", err)
	}
	*id = CourseID(n.String())
	return nil
}

// Instructor is one entry of a course's visible_instructors list.
type Instructor struct {
	DisplayName string `json:"display_name"`
	Image       string `json:"image_100x100"`
}

// CourseRecord is the course representation returned by the course API.
type CourseRecord struct {
	ID                 CourseID     `json:"id"`
	Title              string       `json:"title"`
	Image              string       `json:"image"`
	VisibleInstructors []Instructor `json:"visible_instructors"`
}

// PrimaryInstructor returns the first visible instructor, or a placeholder
// with no avatar when the list is empty.
func (c CourseRecord) PrimaryInstructor() Instructor {
	if len(c.VisibleInstructors) == 0 {
		return Instructor{DisplayName: UnknownInstructorName}
	}
	return c.VisibleInstructors[0]
}
