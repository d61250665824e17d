package main

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/duskmoth/sidestage/internal/services"
	"github.com/duskmoth/sidestage/internal/shared"
	tu "github.com/duskmoth/sidestage/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			client := services.NewClient("http://localhost:9999", "", httpClient)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Client:     client,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.client != client {
				t.Error("expected client to be set")
			}
		})

		t.Run("with nil dependencies uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.client == nil {
				t.Error("expected default client to be set")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"cells": 6}, false); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if got := output.String(); got != "{\"cells\":6}\n" {
				t.Errorf("unexpected output: %q", got)
			}
		})

		t.Run("pretty output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"cells": 6}, true); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if !strings.Contains(output.String(), "  \"cells\": 6") {
				t.Errorf("expected indented output, got %q", output.String())
			}
		})

		t.Run("failing writer", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writeJSON("data", false); err == nil {
				t.Error("expected error from failing writer")
			}
		})

		t.Run("unmarshalable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected marshal error")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("cell (%d,%d)\n", 2, 3); err != nil {
			t.Fatalf("writePlain failed: %v", err)
		}
		if got := output.String(); got != "cell (2,3)\n" {
			t.Errorf("unexpected output: %q", got)
		}

		if err := runner.writePlain("x"); err != nil {
			t.Fatalf("writePlain failed: %v", err)
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("x"); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestParsePalette(t *testing.T) {
	t.Run("normalizes colors", func(t *testing.T) {
		got := parsePalette(" #FF0000, #00ff00 ,,#0000FF")
		want := []string{"#ff0000", "#00ff00", "#0000ff"}
		if len(got) != len(want) {
			t.Fatalf("expected %d colors, got %v", len(want), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("color %d = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := parsePalette(""); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})
}

func TestServerURL(t *testing.T) {
	config := shared.DefaultConfig()
	config.Server.Host = "0.0.0.0"
	config.Server.Port = 9000

	if got := serverURL(config); got != "http://0.0.0.0:9000" {
		t.Errorf("serverURL = %q", got)
	}
}
