package speech

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func writeAged(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("mp3"), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
}

func exists(t *testing.T, dir, name string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

func TestRemoveExpired_RemovesOnlyOldSessionFiles(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "response-old.mp3", 2*time.Hour)
	writeAged(t, dir, "response-fresh.mp3", time.Minute)
	writeAged(t, dir, ".speech-123.tmp", 2*time.Hour)
	writeAged(t, dir, "response.mp3", 2*time.Hour)
	writeAged(t, dir, "notes.txt", 2*time.Hour)

	var cleaned []string
	removed, err := removeExpired(dir, time.Hour, time.Now(), func(name string) {
		cleaned = append(cleaned, name)
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 removed files, got %d", removed)
	}

	sort.Strings(cleaned)
	if len(cleaned) != 2 || cleaned[0] != ".speech-123.tmp" || cleaned[1] != "response-old.mp3" {
		t.Errorf("Unexpected cleanup callbacks %v", cleaned)
	}
	if exists(t, dir, "response-old.mp3") {
		t.Error("Expected old session file to be removed")
	}
	for _, keep := range []string{"response-fresh.mp3", "response.mp3", "notes.txt"} {
		if !exists(t, dir, keep) {
			t.Errorf("Expected %s to be kept", keep)
		}
	}
}

func TestRemoveExpired_MissingDirectory(t *testing.T) {
	removed, err := removeExpired(filepath.Join(t.TempDir(), "missing"), time.Hour, time.Now(), nil)
	if err != nil || removed != 0 {
		t.Errorf("Expected 0, nil for a missing directory, got %d, %v", removed, err)
	}
}

func TestStartTTLWorker_SweepsUntilCanceled(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "response-old.mp3", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartTTLWorker(ctx, dir, 20*time.Millisecond, nil, nil)

	deadline := time.Now().Add(2 * time.Second)
	for exists(t, dir, "response-old.mp3") {
		if time.Now().After(deadline) {
			t.Fatal("Expected the TTL worker to remove the expired file")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStartTTLWorker_DisabledWithZeroTTL(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "response-old.mp3", time.Hour)

	StartTTLWorker(context.Background(), dir, 0, nil, nil)
	time.Sleep(50 * time.Millisecond)

	if !exists(t, dir, "response-old.mp3") {
		t.Error("Expected no cleanup when the TTL is zero")
	}
}
