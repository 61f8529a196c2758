package tle

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCacheWriteLoadLatest(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "tle"), 3)

	if _, _, err := c.LoadLatest(); !errors.Is(err, ErrCacheEmpty) {
		t.Fatalf("empty cache err = %v, want ErrCacheEmpty", err)
	}

	base := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		data := []byte{byte('a' + i)}
		if err := c.Write(data, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	data, ts, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if string(data) != "e" {
		t.Errorf("latest data = %q, want %q", data, "e")
	}
	if !ts.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("latest ts = %v, want %v", ts, base.Add(4*time.Hour))
	}

	files, err := c.snapshots()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Errorf("kept %d snapshots, want 3", len(files))
	}
	if !files[0].ts.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("oldest kept = %v, want %v", files[0].ts, base.Add(2*time.Hour))
	}
}

func TestCacheIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"notes.txt", "tle_abc.txt", "tle_123.bak"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "tle_999.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	c := NewCache(dir, 0)
	if _, _, err := c.LoadLatest(); !errors.Is(err, ErrCacheEmpty) {
		t.Errorf("err = %v, want ErrCacheEmpty", err)
	}
	if c.maxFiles != 5 {
		t.Errorf("maxFiles = %d, want default 5", c.maxFiles)
	}
}
