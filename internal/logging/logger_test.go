// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format 'json', got '%s'", cfg.Format)
	}
	if cfg.Caller {
		t.Error("expected default caller to be false")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	t.Cleanup(func() { initLogger(DefaultConfig()) })

	if err := Init(Config{Level: "debug", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	Info().Str("source", "tracker").Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected output to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("expected output to contain level, got: %s", output)
	}
	if !strings.Contains(output, `"source":"tracker"`) {
		t.Errorf("expected output to contain field, got: %s", output)
	}
}

func TestInitRejectsInvalidLevel(t *testing.T) {
	if err := Init(Config{Level: "verbose"}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestInitEmptyLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	t.Cleanup(func() { initLogger(DefaultConfig()) })

	if err := Init(Config{Level: "", Output: &buf}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if GetLevel() != zerolog.InfoLevel {
		t.Errorf("expected InfoLevel, got %v", GetLevel())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	t.Cleanup(func() { initLogger(DefaultConfig()) })

	if err := Init(Config{Level: "warn", Output: &buf}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	Debug().Msg("dropped debug")
	Info().Msg("dropped info")
	Warn().Msg("kept warn")
	Error().Msg("kept error")

	output := buf.String()
	if strings.Contains(output, "dropped") {
		t.Errorf("expected sub-warn events to be filtered, got: %s", output)
	}
	if !strings.Contains(output, "kept warn") || !strings.Contains(output, "kept error") {
		t.Errorf("expected warn and error events, got: %s", output)
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	t.Cleanup(func() { initLogger(DefaultConfig()) })

	if err := Init(Config{Level: "info", Format: "console", Output: &buf}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	Info().Msg("console test")

	output := buf.String()
	if strings.Contains(output, `"level"`) {
		t.Errorf("expected console format (not JSON): %s", output)
	}
	if !strings.Contains(output, "console test") {
		t.Errorf("expected message in output: %s", output)
	}
}

func TestLoggerReturnsConfiguredInstance(t *testing.T) {
	var buf bytes.Buffer
	t.Cleanup(func() { initLogger(DefaultConfig()) })

	if err := Init(Config{Level: "debug", Output: &buf}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger := Logger()
	logger.Debug().Msg("copy logs through same sink")

	if !strings.Contains(buf.String(), "copy logs through same sink") {
		t.Errorf("expected Logger() copy to share the output, got: %s", buf.String())
	}
}
