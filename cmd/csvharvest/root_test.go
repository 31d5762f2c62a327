package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/csvharvest/internal/config"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "csvharvest" {
			t.Errorf("expected use 'csvharvest', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		subcommands := cmd.Commands()
		if len(subcommands) == 0 {
			t.Error("expected subcommands")
		}

		want := map[string]bool{
			"harvest":   false,
			"normalize": false,
			"vocab":     false,
			"seen":      false,
			"init":      false,
			"version":   false,
		}
		for _, sub := range subcommands {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("has data-dir flag", func(t *testing.T) {
		t.Parallel()
		if cmd.PersistentFlags().Lookup("data-dir") == nil {
			t.Error("expected data-dir flag")
		}
		if cmd.PersistentFlags().Lookup("config") == nil {
			t.Error("expected config flag")
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("data-dir moves the default source dir", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cmd := NewRootCmd()
		vocab, _, err := cmd.Find([]string{"vocab"})
		if err != nil {
			t.Fatal(err)
		}
		if err := vocab.ParseFlags([]string{"--data-dir", dir}); err != nil {
			t.Fatal(err)
		}

		cfg, err := loadConfig(vocab)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DataDir != dir {
			t.Errorf("expected data dir %q, got %q", dir, cfg.DataDir)
		}
		if want := filepath.Join(dir, config.SourceDirName); cfg.SourceDir != want {
			t.Errorf("expected source dir %q, got %q", want, cfg.SourceDir)
		}
	})

	t.Run("config file values are applied", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		content := "sourceDir: " + filepath.Join(dir, "csv") + "\nworkers: 7\ncolumns:\n  Penalty: paid\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewRootCmd()
		vocab, _, err := cmd.Find([]string{"vocab"})
		if err != nil {
			t.Fatal(err)
		}
		if err := vocab.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatal(err)
		}

		cfg, err := loadConfig(vocab)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.SourceDir != filepath.Join(dir, "csv") {
			t.Errorf("expected source dir from file, got %q", cfg.SourceDir)
		}
		if cfg.Workers != 7 {
			t.Errorf("expected 7 workers, got %d", cfg.Workers)
		}
		if cfg.ColumnAliases["Penalty"] != "paid" {
			t.Errorf("expected column alias, got %v", cfg.ColumnAliases)
		}
	})

	t.Run("explicit missing config file is an error", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"vocab", "-c", filepath.Join(t.TempDir(), "missing.yaml")})

		err := cmd.Execute()
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestCreateOutputFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "out.csv")
	f, err := createOutputFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %v", err)
	}
}
