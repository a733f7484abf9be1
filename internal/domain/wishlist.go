package domain

// WishlistIDs is the stored, ordered list of course ids for one user.
// Duplicates are tolerated.
type WishlistIDs []CourseID

// Contains reports whether id is present.
func (w WishlistIDs) Contains(id CourseID) bool {
	for _, v := range w {
		if v == id {
			return true
		}
	}
	return false
}

// Without returns a new list with every occurrence of id removed. The
// receiver is left untouched and the order of the rest is kept.
func (w WishlistIDs) Without(id CourseID) WishlistIDs {
	out := make(WishlistIDs, 0, len(w))
	for _, v := range w {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// FilterCourses keeps the records whose id differs from id, in order.
func FilterCourses(courses []CourseRecord, id CourseID) []CourseRecord {
	out := make([]CourseRecord, 0, len(courses))
	for _, c := range courses {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// FindCourse returns the first record with the given id.
func FindCourse(courses []CourseRecord, id CourseID) (CourseRecord, bool) {
	for _, c := range courses {
		if c.ID == id {
			return c, true
		}
	}
	return CourseRecord{}, false
}
