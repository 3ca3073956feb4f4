package shared

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestGenerateState(t *testing.T) {
	t.Run("fixed length alphanumeric", func(t *testing.T) {
		state, err := GenerateState()
		if err != nil {
			t.Fatalf("GenerateState() error = %v", err)
		}

		if len(state) != StateLength {
			t.Errorf("expected length %d, got %d", StateLength, len(state))
		}

		for _, r := range state {
			if !strings.ContainsRune(stateAlphabet, r) {
				t.Errorf("unexpected character %q in state %s", r, state)
			}
		}
	})

	t.Run("differs on every call", func(t *testing.T) {
		seen := make(map[string]bool)
		for range 500 {
			state, err := GenerateState()
			if err != nil {
				t.Fatalf("GenerateState() error = %v", err)
			}
			if seen[state] {
				t.Fatalf("state %s generated twice", state)
			}
			seen[state] = true
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string of length 36, got %d", len(a))
	}
}

func TestLogger(t *testing.T) {
	t.Run("writes to provided writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewLogger(buf)
		logger.Info("listener started", "addr", "127.0.0.1:3000")

		if !strings.Contains(buf.String(), "listener started") {
			t.Errorf("expected log output, got %q", buf.String())
		}
	})

	t.Run("SetLogLevel", func(t *testing.T) {
		logger := NewLogger(&bytes.Buffer{})

		if err := SetLogLevel(logger, "debug"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", logger.GetLevel())
		}

		if err := SetLogLevel(logger, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if logger.GetLevel() != log.InfoLevel {
			t.Errorf("expected info level, got %v", logger.GetLevel())
		}

		if err := SetLogLevel(logger, "loud"); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
