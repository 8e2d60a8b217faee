package contact

import (
	"errors"
	"strings"
	"testing"
)

func TestSubmissionValidate(t *testing.T) {
	s := Submission{Name: " Ana ", Email: " ana@example.com ", Message: " Need a chatbot "}
	s.Normalize()
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid submission, got %v", err)
	}
	if s.Name != "Ana" || s.Message != "Need a chatbot" {
		t.Fatalf("fields not trimmed: %+v", s)
	}
}

func TestSubmissionValidateReportsAllProblems(t *testing.T) {
	err := Submission{Email: "not-an-email", Company: strings.Repeat("x", maxFieldLen+1)}.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	for _, want := range []string{"name is required", "email is not a valid address", "message is required", "company exceeds"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestEmailRejectsDisplayNames(t *testing.T) {
	if err := validateEmail("Ana <ana@example.com>"); err == nil {
		t.Fatal("expected display-name form to be rejected")
	}
}

func TestSubscriptionDefaults(t *testing.T) {
	s := Subscription{Email: "ana@example.com"}
	s.Normalize()
	if s.SourceID != DefaultSource {
		t.Fatalf("unexpected source %q", s.SourceID)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Subscription{}).Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
