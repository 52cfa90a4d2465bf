package domain

// ContactInfo holds the contact section of a resume.
type ContactInfo struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Experience holds one work-experience entry.
type Experience struct {
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	Location         string   `json:"location,omitempty"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	Responsibilities []string `json:"responsibilities"`
}

// Education holds one education entry.
type Education struct {
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	GraduationDate string `json:"graduation_date"`
}

// TailoredResume is the canonical resume structure used across the
// application. The tailoring agent receives and returns documents in this
// shape, and completed artifacts are PDF renderings of it.
type TailoredResume struct {
	ContactInfo ContactInfo  `json:"contact_info"`
	Summary     string       `json:"summary"`
	Experience  []Experience `json:"experience"`
	Education   []Education  `json:"education"`
	Skills      []string     `json:"skills"`
}

// Validate checks the minimum structure the pipeline requires before an
// artifact is accepted.
// Parameters: none.
// Returns:
//   - error: validation error naming the first missing section, or nil.
func (t *TailoredResume) Validate() error {
	if t.ContactInfo.Name == "" {
		return NewValidationError("contact_info.name", "missing")
	}
	if t.Summary == "" {
		return NewValidationError("summary", "missing")
	}
	if len(t.Experience) == 0 {
		return NewValidationError("experience", "must not be empty")
	}
	return nil
}
