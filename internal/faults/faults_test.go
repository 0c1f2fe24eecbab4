package faults

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassSentinelMatching(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		class error
		label string
	}{
		{"validation", Validation("empty_invoice", "invoice id must not be empty"), ErrValidation, "validation"},
		{"precondition", Precondition("not_logged_in", "login required"), ErrPrecondition, "precondition"},
		{"protocol", Protocol("unknown_event_type", "unrecognised type %q", "BOGUS"), ErrProtocol, "protocol"},
		{"capability", CapabilityUnsupported("CLOSE_PERIOD_CAPABILITY"), ErrCapabilityUnsupported, "capability_unsupported"},
		{"terminal", TerminalFailure("declined", "status %s", "-20"), ErrTerminalFailure, "terminal_failure"},
		{"timeout", Timeout("login_wait", "no LOGIN_COMPLETED within deadline"), ErrTimeout, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.err, tt.class)
			require.Equal(t, tt.label, Classify(tt.err))
			for _, other := range tests {
				if other.class != tt.class {
					require.NotErrorIs(t, tt.err, other.class)
				}
			}
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	require.Equal(t, "none", Classify(nil))
	require.Equal(t, "internal", Classify(errors.New("boom")))
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("pay: %w", Validation("non_positive_amount", "amount must be > 0"))
	require.Equal(t, "non_positive_amount", Code(err))
	require.ErrorIs(t, err, ErrValidation)
}

func TestCodeAbsent(t *testing.T) {
	require.Empty(t, Code(errors.New("plain")))
}
