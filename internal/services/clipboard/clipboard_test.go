package clipboard

import (
	"errors"
	"testing"
)

func TestServiceCopy(t *testing.T) {
	var written string
	service := &Service{write: func(text string) error {
		written = text
		return nil
	}}
	if err := service.Copy("payload"); err != nil {
		t.Fatalf("Copy error: %v", err)
	}
	if written != "payload" {
		t.Fatalf("expected payload to be written, got %q", written)
	}
}

func TestServiceCopyUnsupported(t *testing.T) {
	service := &Service{unsupported: true}
	if err := service.Copy("payload"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestServiceCopyWrapsFailure(t *testing.T) {
	writeFailure := errors.New("xclip missing")
	service := &Service{write: func(string) error { return writeFailure }}
	if err := service.Copy("payload"); !errors.Is(err, writeFailure) {
		t.Fatalf("expected wrapped failure, got %v", err)
	}
}
