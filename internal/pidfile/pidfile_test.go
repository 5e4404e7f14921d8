package pidfile

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "run", "schnellrechner.pid"))

	if err := p.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	pid, err := p.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("Expected PID %d, got %d", os.Getpid(), pid)
	}

	// acquiring twice from the same process is fine
	if err := p.Acquire(); err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}

	if err := p.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(p.Path()); !os.IsNotExist(err) {
		t.Errorf("Expected pidfile to be removed, stat returned %v", err)
	}

	if err := p.Release(); err != nil {
		t.Errorf("Release of a missing file should be a no-op, got %v", err)
	}
}

func TestAcquireReplacesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.pid")
	if err := os.WriteFile(path, []byte("not a pid"), 0644); err != nil {
		t.Fatal(err)
	}

	p := New(path)
	if err := p.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	pid, err := p.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("Expected PID %d, got %d", os.Getpid(), pid)
	}
}

func TestAcquireRefusesLiveProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signal 0 is not supported on windows")
	}

	path := filepath.Join(t.TempDir(), "live.pid")
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getppid())), 0644); err != nil {
		t.Fatal(err)
	}

	p := New(path)
	if err := p.Acquire(); !errors.Is(err, ErrRunning) {
		t.Fatalf("Expected ErrRunning, got %v", err)
	}

	// the other process keeps its file
	if err := p.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	pid, err := p.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if pid != os.Getppid() {
		t.Errorf("Expected PID %d to be kept, got %d", os.Getppid(), pid)
	}
}
