package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLevelFiltersRecords(t *testing.T) {
	t.Cleanup(func() { _ = SetLevelString("info") })
	if err := SetLevelString("WARN"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	var buf bytes.Buffer
	log := New(&buf).Named("quiz")

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "submission failed", String("session", "s1"), Error(errors.New("boom")))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered: %q", out)
	}
	for _, want := range []string{"submission failed", "component=quiz", "session=s1", "error=boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestSetLevelStringRejectsUnknown(t *testing.T) {
	if err := SetLevelString("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
