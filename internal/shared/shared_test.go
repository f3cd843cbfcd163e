package shared

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("SetLogLevelName", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		if err := SetLogLevelName(logger, "debug"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", logger.GetLevel())
		}

		if err := SetLogLevelName(logger, "loud"); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}

		if err := SetLogLevelName(logger, ""); err != nil {
			t.Errorf("empty level should be a no-op, got %v", err)
		}
	})

	t.Run("WithLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "session", "abc")
		logger.Info("hello")

		if !strings.Contains(buf.String(), "session=abc") {
			t.Errorf("expected session key in output, got %q", buf.String())
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]string{"key": "value"}

	t.Run("pretty", func(t *testing.T) {
		out, err := MarshalJSON(data, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(string(out), `"key": "value"`) {
			t.Errorf("expected formatted JSON, got %s", out)
		}
	})

	t.Run("compact", func(t *testing.T) {
		out, err := MarshalJSON(data, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(out) != `{"key":"value"}` {
			t.Errorf("unexpected JSON %s", out)
		}
	})

	t.Run("non-serializable data", func(t *testing.T) {
		// channels cannot be marshaled to JSON
		_, err := MarshalJSON(make(chan int), false)
		if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
			t.Errorf("expected marshal error, got %v", err)
		}
	})
}
