package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type sample struct {
	Name     string `validate:"required"`
	Priority int    `validate:"min=0,max=10"`
}

func TestStruct(t *testing.T) {
	if err := Struct(sample{Name: "a", Priority: 3}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	err := Struct(sample{Priority: 3})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "Name" {
		t.Errorf("expected Name field error, got %#v", err)
	}

	err = Struct(sample{Name: "a", Priority: 11})
	if !strings.Contains(err.Error(), "at most 10") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("priority", "must be positive"), http.StatusBadRequest},
		{fmt.Errorf("enqueue: %w", ErrDuplicateEntry), http.StatusConflict},
		{fmt.Errorf("patch: %w", ErrNotFound), http.StatusNotFound},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, ErrDuplicateEntry)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Errorf("expected success:false body, got %s", w.Body.String())
	}
}
