package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediaoutbox/internal/testsupport"
)

func writeConfigFile(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "config.toml")
	content := fmt.Sprintf("[paths]\nmedia_root = %q\nlog_dir = %q\n", filepath.Join(root, "outbox"), filepath.Join(root, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestQueueListEmpty(t *testing.T) {
	cfgPath := writeConfigFile(t)
	out, err := runCommand(t, "--config", cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestAddThenListAndStatus(t *testing.T) {
	cfgPath := writeConfigFile(t)

	src := filepath.Join(t.TempDir(), "photo.jpg")
	testsupport.WriteJPEG(t, src, 1200, 800)

	out, err := runCommand(t, "--config", cfgPath, "add", src, "--conversation", "trip")
	if err != nil {
		t.Fatalf("add: %v\n%s", err, out)
	}
	if !strings.Contains(out, "queued in conversation trip") {
		t.Fatalf("unexpected add output: %q", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "trip") {
		t.Fatalf("queued entry missing from list: %q", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "pending") || !strings.Contains(out, "Media usage") {
		t.Fatalf("unexpected status output: %q", out)
	}
}

func TestSweepWithoutTransportHoldsQueue(t *testing.T) {
	cfgPath := writeConfigFile(t)

	src := filepath.Join(t.TempDir(), "photo.jpg")
	testsupport.WriteJPEG(t, src, 1200, 800)
	if _, err := runCommand(t, "--config", cfgPath, "add", src); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := runCommand(t, "--config", cfgPath, "queue", "sweep")
	if err != nil {
		t.Fatalf("queue sweep: %v", err)
	}
	if !strings.Contains(out, "Attempted 1") {
		t.Fatalf("unexpected sweep output: %q", out)
	}

	// Without a transport the entry stays pending.
	out, err = runCommand(t, "--config", cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if strings.Contains(out, "Queue is empty") {
		t.Fatalf("entry should remain queued: %q", out)
	}
}

func TestStorageCommand(t *testing.T) {
	cfgPath := writeConfigFile(t)
	out, err := runCommand(t, "--config", cfgPath, "storage")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	if !strings.Contains(out, "Content usage") || !strings.Contains(out, "Free space") {
		t.Fatalf("unexpected storage output: %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	cfgPath := writeConfigFile(t)

	out, err := runCommand(t, "--config", cfgPath, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.Contains(out, cfgPath) {
		t.Fatalf("unexpected path output: %q", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "media_root") {
		t.Fatalf("unexpected show output: %q", out)
	}

	initPath := filepath.Join(t.TempDir(), "fresh.toml")
	out, err = runCommand(t, "--config", initPath, "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, initPath) {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(initPath); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	if _, err := runCommand(t, "--config", initPath, "config", "init"); err == nil {
		t.Fatal("second init must refuse to overwrite")
	}
}
