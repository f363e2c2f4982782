package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/eunmann/cci-extract/internal/logctx"
)

// captureLogger points the process logger at a buffer for one test.
func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := logger
	l := zerolog.New(&buf)
	logger = &l
	t.Cleanup(func() { logger = prev })
	return &buf
}

func TestInitLevels(t *testing.T) {
	prevLevel := zerolog.GlobalLevel()
	prevPretty := prettyMode.Load()
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prevLevel)
		prettyMode.Store(prevPretty)
	})

	tests := []struct {
		debug, human bool
		wantLevel    zerolog.Level
	}{
		{false, false, zerolog.InfoLevel},
		{true, false, zerolog.DebugLevel},
		{false, true, zerolog.InfoLevel},
		{true, true, zerolog.DebugLevel},
	}

	for _, tt := range tests {
		Init(tt.debug, tt.human)
		if got := zerolog.GlobalLevel(); got != tt.wantLevel {
			t.Errorf("Init(%v, %v): global level = %v, want %v", tt.debug, tt.human, got, tt.wantLevel)
		}
		if IsPrettyMode() != tt.human {
			t.Errorf("Init(%v, %v): pretty mode = %v", tt.debug, tt.human, IsPrettyMode())
		}
		if got := logctx.DefaultLogger().GetLevel(); got != tt.wantLevel {
			t.Errorf("Init(%v, %v): context fallback level = %v, want %v", tt.debug, tt.human, got, tt.wantLevel)
		}
	}
}

func TestWithCommand(t *testing.T) {
	buf := captureLogger(t)

	log := WithCommand("extract")
	log.Warn().Uint32("sector", 17).Msg("sector unreadable")

	var fields map[string]any
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if fields["command"] != "extract" || fields["sector"] != float64(17) {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestCommandEventsCarryOnePhase(t *testing.T) {
	buf := captureLogger(t)
	withPrettyMode(t, false)

	log := WithCommand("extract")
	PhaseComplete(log, "fetch", time.Second).Int("slices", 2).Log("container downloaded")
	PhaseComplete(log, "extract", time.Second).Count("sectors", 4).Log("extraction complete")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	for i, want := range []string{"fetch", "extract"} {
		if n := strings.Count(lines[i], `"phase":`); n != 1 {
			t.Errorf("line %d has %d phase keys: %s", i, n, lines[i])
		}
		if !strings.Contains(lines[i], `"phase":"`+want+`"`) {
			t.Errorf("line %d: expected phase %q, got: %s", i, want, lines[i])
		}
		if !strings.Contains(lines[i], `"command":"extract"`) {
			t.Errorf("line %d: expected command field, got: %s", i, lines[i])
		}
	}
}
