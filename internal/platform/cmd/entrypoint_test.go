package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Storage string `env:"CMD_TEST_STORAGE" envDefault:"file"`
	Path    string `env:"CMD_TEST_PATH" envDefault:"file.json"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_STORAGE", "db")
	t.Setenv("CMD_TEST_PATH", "env.json")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfgRef := testConfig{}
	if err := ParseConfig(&cfgRef); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfgRef.Storage, "storage", cfgRef.Storage, "storage")
	fs.StringVar(&cfgRef.Path, "file", cfgRef.Path, "file")

	if err := ParseArgs(fs, []string{"-file", "flag.json"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfgRef.Path != "flag.json" {
		t.Fatalf("expected flag value for path, got %q", cfgRef.Path)
	}
	if cfgRef.Storage != "db" {
		t.Fatalf("expected env storage, got %q", cfgRef.Storage)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil config target error")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceConsole, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("HBNB_OTEL_ENDPOINT", "")
	want := errors.New("boom")

	err := RunWithTelemetry(context.Background(), ServiceConsole, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("run error = %v, want %v", err, want)
	}
}
