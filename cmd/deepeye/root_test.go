package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewRootCmd tests root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	t.Run("has expected subcommands", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()

		expected := map[string]bool{
			"scan":    false,
			"history": false,
			"init":    false,
			"version": false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := expected[sub.Name()]; ok {
				expected[sub.Name()] = true
			}
		}
		for name, found := range expected {
			if !found {
				t.Errorf("expected subcommand %q to be registered", name)
			}
		}
	})

	t.Run("help output describes the tool", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs([]string{"--help"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "reconnaissance") {
			t.Error("expected help to describe the tool")
		}
		if !strings.Contains(output, "scan") {
			t.Error("expected help to list scan subcommand")
		}
	})

	t.Run("persistent verbose flag exists", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		if cmd.PersistentFlags().Lookup("verbose") == nil {
			t.Error("expected persistent --verbose flag")
		}
	})

	t.Run("unknown command fails", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"nonexistent"})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for unknown command")
		}
	})
}
