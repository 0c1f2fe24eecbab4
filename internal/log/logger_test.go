package log

import (
	"bytes"
	"encoding/json"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// testBuf captures all log output for the package tests. Configure is
// once-only, so it must run before any test touches the base logger.
var (
	testMu  sync.Mutex
	testBuf bytes.Buffer
)

type lockedBuf struct{}

func (lockedBuf) Write(p []byte) (int, error) {
	testMu.Lock()
	defer testMu.Unlock()
	return testBuf.Write(p)
}

func TestMain(m *testing.M) {
	Configure(Config{Level: "debug", Output: lockedBuf{}, Service: "verifonepayment"})
	os.Exit(m.Run())
}

func lastEntry(t *testing.T) map[string]any {
	t.Helper()
	testMu.Lock()
	defer testMu.Unlock()
	lines := bytes.Split(bytes.TrimSpace(testBuf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestBaseWritesServiceField(t *testing.T) {
	l := Base()
	l.Info().Msg("hello")

	entry := lastEntry(t)
	require.Equal(t, "verifonepayment", entry["service"])
	require.Equal(t, "hello", entry["message"])
}

func TestWithComponentAnnotates(t *testing.T) {
	l := WithComponent("session")
	l.Info().Msg("component test")

	entry := lastEntry(t)
	require.Equal(t, "session", entry[FieldComponent])
}

func TestDeriveAddsFields(t *testing.T) {
	l := Derive(func(c *zerolog.Context) {
		*c = c.Str(FieldSessionID, "abc123")
	})
	l.Info().Msg("derive test")

	entry := lastEntry(t)
	require.Equal(t, "abc123", entry[FieldSessionID])
}

func TestSetLevelSuppressesBelowThreshold(t *testing.T) {
	SetLevel("error")
	defer SetLevel("debug")

	testMu.Lock()
	before := testBuf.Len()
	testMu.Unlock()

	l := Base()
	l.Info().Msg("should be suppressed")

	testMu.Lock()
	after := testBuf.Len()
	testMu.Unlock()
	require.Equal(t, before, after)

	// Empty and garbage inputs leave the level untouched.
	SetLevel("")
	SetLevel("not-a-level")
	l.Error().Msg("still logged")
	entry := lastEntry(t)
	require.Equal(t, "still logged", entry["message"])
}
