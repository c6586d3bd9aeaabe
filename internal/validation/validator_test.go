package validation

import (
	"testing"

	domainerrors "github.com/pagemarkapp/pagemark-server/internal/errors"
)

type progressPayload struct {
	Chapter int `json:"chapter" validate:"gte=0"`
	Page    int `json:"page" validate:"gte=1"`
}

type bookmarkPayload struct {
	ChapterTitle string `json:"chapter_title" validate:"required"`
	Title        string `json:"title" validate:"required,max=200"`
}

func TestValidateValid(t *testing.T) {
	v := New()
	if err := v.Validate(progressPayload{Chapter: 0, Page: 1}); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
}

func TestValidateCollectsFieldErrors(t *testing.T) {
	v := New()
	err := v.Validate(progressPayload{Chapter: -1, Page: 0})
	if err == nil {
		t.Fatal("expected error")
	}

	var domainErr *domainerrors.Error
	if !domainerrors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %T", err)
	}
	if domainErr.Code != domainerrors.CodeValidation {
		t.Errorf("code: got %s", domainErr.Code)
	}

	details, ok := domainErr.Details.(map[string]string)
	if !ok {
		t.Fatalf("details: got %T", domainErr.Details)
	}
	if len(details) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(details), details)
	}
	if _, ok := details["chapter"]; !ok {
		t.Error("missing json-named field error for chapter")
	}
}

func TestValidateRequired(t *testing.T) {
	v := New()
	err := v.Validate(bookmarkPayload{ChapterTitle: "", Title: "ok"})
	if err == nil {
		t.Fatal("expected error")
	}

	var domainErr *domainerrors.Error
	if !domainerrors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %T", err)
	}
	details := domainErr.Details.(map[string]string)
	if details["chapter_title"] != "is required" {
		t.Errorf("message: got %q", details["chapter_title"])
	}
}
