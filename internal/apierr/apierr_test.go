package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusAndCodeResolution(t *testing.T) {
	notFound := NotFound("row_missing", "row %d missing", 7)
	if StatusOf(notFound) != http.StatusNotFound || CodeOf(notFound) != "row_missing" {
		t.Fatalf("unexpected mapping: status=%d code=%q", StatusOf(notFound), CodeOf(notFound))
	}
	if !IsNotFound(notFound) {
		t.Fatal("IsNotFound should match a 404 error")
	}

	conflict := Conflict("key_taken", "taken")
	if StatusOf(conflict) != http.StatusBadRequest {
		t.Fatalf("conflicts map to 400, got %d", StatusOf(conflict))
	}
	if IsNotFound(conflict) {
		t.Fatal("IsNotFound must not match a conflict")
	}

	plain := errors.New("boom")
	if StatusOf(plain) != http.StatusInternalServerError || CodeOf(plain) != "internal_error" {
		t.Fatalf("plain errors must map to 500/internal_error, got %d/%q", StatusOf(plain), CodeOf(plain))
	}
}

func TestErrorsAsSeesWrappedError(t *testing.T) {
	inner := Forbidden("editing_disabled", "editing is disabled")
	wrapped := fmt.Errorf("handle request: %w", inner)

	if StatusOf(wrapped) != http.StatusForbidden {
		t.Fatalf("expected wrapped status 403, got %d", StatusOf(wrapped))
	}
	if CodeOf(wrapped) != "editing_disabled" {
		t.Fatalf("expected wrapped code, got %q", CodeOf(wrapped))
	}
}

func TestErrorString(t *testing.T) {
	withErr := New(400, "bad_input", errors.New("field missing"))
	if withErr.Error() != "field missing" {
		t.Fatalf("unexpected message %q", withErr.Error())
	}
	codeOnly := New(400, "bad_input", nil)
	if codeOnly.Error() != "bad_input" {
		t.Fatalf("unexpected message %q", codeOnly.Error())
	}
}
