// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// resetGlobal restores the default logger after a test reconfigures it.
func resetGlobal(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { Init(DefaultConfig()) })
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" || cfg.Format != "json" {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if cfg.Caller || !cfg.Timestamp {
		t.Errorf("DefaultConfig() caller/timestamp = %v/%v", cfg.Caller, cfg.Timestamp)
	}
}

func TestInit(t *testing.T) {
	resetGlobal(t)
	var buf bytes.Buffer

	Init(Config{Level: "debug", Format: "json", Output: &buf})
	Debug().Str("path", "/data/filmrec.duckdb").Msg("opening database")

	out := buf.String()
	for _, want := range []string{`"level":"debug"`, `"path":"/data/filmrec.duckdb"`, `"message":"opening database"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}

func TestInit_LevelFilters(t *testing.T) {
	resetGlobal(t)
	var buf bytes.Buffer

	Init(Config{Level: "warn", Output: &buf})
	Info().Msg("hidden")
	Warn().Msg("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info event written at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn event missing")
	}
}

func TestInit_ConsoleFormat(t *testing.T) {
	resetGlobal(t)
	var buf bytes.Buffer

	Init(Config{Level: "info", Format: "console", Output: &buf})
	Info().Msg("training started")

	out := buf.String()
	if !strings.Contains(out, "training started") {
		t.Errorf("output %q missing message", out)
	}
	if strings.Contains(out, `"message"`) {
		t.Errorf("console output looks like JSON: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	resetGlobal(t)
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	logger := WithComponent("training")
	logger.Info().Msg("epoch complete")

	if !strings.Contains(buf.String(), `"component":"training"`) {
		t.Errorf("output %q missing component", buf.String())
	}
}

func TestErr(t *testing.T) {
	resetGlobal(t)
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	Err(errors.New("snapshot checksum mismatch")).Msg("restore failed")

	out := buf.String()
	if !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, "snapshot checksum mismatch") {
		t.Errorf("output = %q", out)
	}
}

func TestSetLevelString(t *testing.T) {
	resetGlobal(t)

	SetLevelString("error")
	if zerolog.GlobalLevel() != zerolog.ErrorLevel {
		t.Errorf("GlobalLevel() = %v, want error", zerolog.GlobalLevel())
	}
	SetLevelString("debug")
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("GlobalLevel() = %v, want debug", zerolog.GlobalLevel())
	}
}
