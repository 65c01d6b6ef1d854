package submission

import (
	"mime/multipart"
	"time"
)

// SubmitInput is the public form payload. Token and Honeypot are checked by
// the pipeline before the remaining fields are sanitized and validated.
type SubmitInput struct {
	Token    string `form:"form_token"`
	Honeypot string `form:"hp"`

	FirstName string `form:"first_name" validate:"required,max=255"`
	LastName  string `form:"last_name" validate:"required,max=255"`
	Email     string `form:"email" validate:"required,max=254,email"`
	Message   string `form:"message" validate:"required,max=20000"`

	// Optional file, taken from the "attachment" multipart field.
	Attachment *multipart.FileHeader `form:"-"`
}

// Filter restricts admin queries. Each non-empty field must be contained,
// case-insensitively, in the matching column.
type Filter struct {
	FirstName string `form:"first_name" json:"first_name,omitempty"`
	LastName  string `form:"last_name" json:"last_name,omitempty"`
	Email     string `form:"email" json:"email,omitempty"`
}

// Normalize strips markup and surrounding whitespace from every criterion.
func (f Filter) Normalize() Filter {
	return Filter{
		FirstName: sanitizeTextField(f.FirstName),
		LastName:  sanitizeTextField(f.LastName),
		Email:     sanitizeTextField(f.Email),
	}
}

// IsEmpty returns true if no criterion is set
func (f Filter) IsEmpty() bool {
	return f.FirstName == "" && f.LastName == "" && f.Email == ""
}

// SubmissionResponse is the JSON view of a Submission.
type SubmissionResponse struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Message       string    `json:"message"`
	AttachmentURL string    `json:"attachment_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListResponse represents the admin list
type ListResponse struct {
	Submissions []SubmissionResponse `json:"submissions"`
	Total       int                  `json:"total"`
	Filter      Filter               `json:"filter"`
	FormToken   string               `json:"form_token"`
}

func toResponse(s *Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:            s.ID,
		FirstName:     s.FirstName,
		LastName:      s.LastName,
		Email:         s.Email,
		Message:       s.Message,
		AttachmentURL: s.Attachment(),
		CreatedAt:     s.CreatedAt,
	}
}

func toResponses(subs []Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, toResponse(&subs[i]))
	}
	return out
}
