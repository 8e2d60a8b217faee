package contact

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

const (
	maxFieldLen   = 200
	maxMessageLen = 5000

	// DefaultSource tags subscriptions that do not name their origin.
	DefaultSource = "website"
)

// ErrInvalid marks validation failures.
var ErrInvalid = errors.New("invalid submission")

// Submission is a contact form entry.
type Submission struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Industry  string    `json:"industry"`
	Service   string    `json:"service"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Normalize trims every field.
func (s *Submission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Company = strings.TrimSpace(s.Company)
	s.Industry = strings.TrimSpace(s.Industry)
	s.Service = strings.TrimSpace(s.Service)
	s.Message = strings.TrimSpace(s.Message)
}

// Validate checks required fields and limits. All problems are reported
// together; the result wraps ErrInvalid.
func (s Submission) Validate() error {
	var result *multierror.Error
	if s.Name == "" {
		result = multierror.Append(result, fieldError("name", "is required"))
	}
	if err := validateEmail(s.Email); err != nil {
		result = multierror.Append(result, err)
	}
	if s.Message == "" {
		result = multierror.Append(result, fieldError("message", "is required"))
	}
	for field, value := range map[string]string{
		"name": s.Name, "company": s.Company, "industry": s.Industry, "service": s.Service,
	} {
		if len(value) > maxFieldLen {
			result = multierror.Append(result, fieldError(field, fmt.Sprintf("exceeds %d characters", maxFieldLen)))
		}
	}
	if len(s.Message) > maxMessageLen {
		result = multierror.Append(result, fieldError("message", fmt.Sprintf("exceeds %d characters", maxMessageLen)))
	}
	return wrap(result)
}

// Subscription is a newsletter sign-up.
type Subscription struct {
	ID        string    `json:"id,omitempty"`
	Email     string    `json:"email"`
	SourceID  string    `json:"source_id"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Normalize trims the fields and applies the default source.
func (s *Subscription) Normalize() {
	s.Email = strings.TrimSpace(s.Email)
	s.SourceID = strings.TrimSpace(s.SourceID)
	if s.SourceID == "" {
		s.SourceID = DefaultSource
	}
}

func (s Subscription) Validate() error {
	var result *multierror.Error
	if err := validateEmail(s.Email); err != nil {
		result = multierror.Append(result, err)
	}
	if len(s.SourceID) > maxFieldLen {
		result = multierror.Append(result, fieldError("source_id", fmt.Sprintf("exceeds %d characters", maxFieldLen)))
	}
	return wrap(result)
}

func validateEmail(email string) error {
	if email == "" {
		return fieldError("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fieldError("email", "is not a valid address")
	}
	return nil
}

func fieldError(field, problem string) error {
	return fmt.Errorf("%s %s", field, problem)
}

func wrap(result *multierror.Error) error {
	if result == nil {
		return nil
	}
	result.ErrorFormat = func(errs []error) string {
		parts := make([]string, len(errs))
		for i, err := range errs {
			parts[i] = err.Error()
		}
		return strings.Join(parts, "; ")
	}
	return fmt.Errorf("%w: %w", ErrInvalid, result)
}
