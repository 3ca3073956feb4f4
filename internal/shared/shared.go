// package shared defines shared helpers
package shared

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// StateLength is the number of characters in a correlation (state) token.
const StateLength = 30

const stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true, Prefix: "spautofy"}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel parses level and applies it to the given [log.Logger].
//
// An empty level leaves the logger at info.
func SetLogLevel(l *log.Logger, level string) error {
	if level == "" {
		l.SetLevel(log.InfoLevel)
		return nil
	}
	ll, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, level)
	}
	l.SetLevel(ll)
	return nil
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// GenerateState returns a random alphanumeric correlation token of [StateLength] characters.
//
// The token binds an authorization redirect to the callback that answers it.
func GenerateState() (string, error) {
	max := big.NewInt(int64(len(stateAlphabet)))
	buf := make([]byte, StateLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate state token: %w", err)
		}
		buf[i] = stateAlphabet[n.Int64()]
	}
	return string(buf), nil
}
