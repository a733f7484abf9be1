package view

import (
	"github.com/coursehub/wishlist/internal/domain"
)

// Texts and colours of the wishlist page.
const (
	PageTitle         = "Your Wishing List"
	EmptyMessage      = "Your wishlist is empty."
	UnknownCourseName = "Unknown Course"

	EvenRowBackground = "#343a40"
	OddRowBackground  = "#454d55"
)

// Page is the rendered wishlist. While Loading is set nothing else is filled.
type Page struct {
	Loading      bool    `json:"loading"`
	Title        string  `json:"title,omitempty"`
	Empty        bool    `json:"empty"`
	EmptyMessage string  `json:"empty_message,omitempty"`
	Rows         []Row   `json:"rows,omitempty"`
	Dialog       *Dialog `json:"dialog,omitempty"`
}

// Row is one course line.
type Row struct {
	Index            int             `json:"index"`
	CourseID         domain.CourseID `json:"course_id"`
	Title            string          `json:"title"`
	Image            string          `json:"image"`
	ImageAlt         string          `json:"image_alt"`
	InstructorName   string          `json:"instructor_name"`
	InstructorAvatar string          `json:"instructor_avatar,omitempty"`
	Background       string          `json:"background"`
}

// Dialog carries the confirmation dialog inputs: open flag and course name.
type Dialog struct {
	Open       bool             `json:"open"`
	CourseName string           `json:"course_name"`
	CourseID   *domain.CourseID `json:"course_id,omitempty"`
}

func renderPage(loading bool, courses []domain.CourseRecord, dialogOpen bool, pending *domain.CourseID) Page {
	if loading {
		return Page{Loading: true}
	}

	p := Page{
		Title:  PageTitle,
		Empty:  len(courses) == 0,
		Rows:   make([]Row, 0, len(courses)),
		Dialog: &Dialog{Open: dialogOpen, CourseName: UnknownCourseName},
	}
	if p.Empty {
		p.EmptyMessage = EmptyMessage
	}

	for i, c := range courses {
		instructor := c.PrimaryInstructor()
		bg := EvenRowBackground
		if i%2 == 1 {
			bg = OddRowBackground
		}
		p.Rows = append(p.Rows, Row{
			Index:            i,
			CourseID:         c.ID,
			Title:            c.Title,
			Image:            c.Image,
			ImageAlt:         "Course: " + c.Title,
			InstructorName:   instructor.DisplayName,
			InstructorAvatar: instructor.Image,
			Background:       bg,
		})
	}

	if pending != nil {
		id := *pending
		p.Dialog.CourseID = &id
		if c, ok := domain.FindCourse(courses, id); ok && c.Title != "" {
			p.Dialog.CourseName = c.Title
		}
	}

	return p
}
