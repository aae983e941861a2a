package garmin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fitbridge/fitbridge/pkg/models"
)

func newTestWriter(t *testing.T) (*ConfigWriter, string) {
	t.Helper()
	dataDir := filepath.Join(t.TempDir(), "data")
	configPath := filepath.Join(dataDir, "GarminConnectConfig.json")
	return NewConfigWriter(dataDir, configPath), configPath
}

func readDocument(t *testing.T, path string) ConfigDocument {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	var doc ConfigDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("failed to decode config file: %v", err)
	}
	return doc
}

func TestConfigWriter_WriteCreatesDataDirAndFile(t *testing.T) {
	w, configPath := newTestWriter(t)

	creds := models.Credentials{Username: "alice", Password: "secret"}
	if err := w.Write(creds); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	doc := readDocument(t, configPath)
	if doc.Connection.Username != "alice" {
		t.Errorf("expected username 'alice', got '%s'", doc.Connection.Username)
	}
	if doc.Connection.Password != "secret" {
		t.Errorf("expected password 'secret', got '%s'", doc.Connection.Password)
	}
	if doc.Connection.AuthenticationMethod != "GARMIN" {
		t.Errorf("expected authentication method GARMIN, got '%s'", doc.Connection.AuthenticationMethod)
	}
	if doc.Settings.Database.Name != "garmin.db" {
		t.Errorf("expected database name garmin.db, got '%s'", doc.Settings.Database.Name)
	}
	if len(doc.Settings.Download.DataTypes) != 1 || doc.Settings.Download.DataTypes[0] != "activities" {
		t.Errorf("expected data types [activities], got %v", doc.Settings.Download.DataTypes)
	}
}

func TestConfigWriter_ClearBlanksCredentials(t *testing.T) {
	w, configPath := newTestWriter(t)

	if err := w.Write(models.Credentials{Username: "alice", Password: "secret"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	doc := readDocument(t, configPath)
	if doc.Connection.Username != "" || doc.Connection.Password != "" {
		t.Errorf("expected blank credentials after Clear, got '%s'/'%s'",
			doc.Connection.Username, doc.Connection.Password)
	}
	// Non-credential settings survive the clear as part of the full document.
	if doc.Settings.Database.Name != "garmin.db" {
		t.Errorf("expected settings to be rewritten on clear, got '%s'", doc.Settings.Database.Name)
	}
}

func TestConfigWriter_ClearWhenFileAbsent(t *testing.T) {
	w, configPath := newTestWriter(t)

	// No prior Write: the file does not exist yet and Clear must still succeed.
	if err := w.Clear(); err != nil {
		t.Fatalf("Clear on absent file failed: %v", err)
	}

	doc := readDocument(t, configPath)
	if doc.Connection.Username != "" || doc.Connection.Password != "" {
		t.Error("expected blank credentials in freshly cleared file")
	}
}

func TestConfigWriter_WriteReplacesWholeFile(t *testing.T) {
	w, configPath := newTestWriter(t)

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		t.Fatalf("failed to create data dir: %v", err)
	}
	// Pre-existing content, including settings a user may have hand-edited,
	// is fully replaced rather than merged.
	if err := os.WriteFile(configPath, []byte(`{"connection":{"username":"stale"},"custom":true}`), 0o600); err != nil {
		t.Fatalf("failed to seed config file: %v", err)
	}

	if err := w.Write(models.Credentials{Username: "bob", Password: "pw"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if strings.Contains(string(raw), "custom") {
		t.Error("expected prior file contents to be fully replaced")
	}
	if strings.Contains(string(raw), "stale") {
		t.Error("expected stale credentials to be gone")
	}
}

func TestConfigWriter_NoTempFilesLeftBehind(t *testing.T) {
	w, _ := newTestWriter(t)

	if err := w.Write(models.Credentials{Username: "alice", Password: "secret"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	entries, err := os.ReadDir(w.dataDir)
	if err != nil {
		t.Fatalf("failed to list data dir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "GarminConnectConfig.json" {
			t.Errorf("unexpected leftover file in data dir: %s", e.Name())
		}
	}
}

func TestConfigWriter_ReplaceFailureCleansUpTemp(t *testing.T) {
	dataDir := t.TempDir()
	configPath := filepath.Join(dataDir, "GarminConnectConfig.json")
	// A directory at the target path makes the rename fail.
	if err := os.Mkdir(configPath, 0o700); err != nil {
		t.Fatalf("failed to create blocking directory: %v", err)
	}
	w := NewConfigWriter(dataDir, configPath)

	if err := w.Write(models.Credentials{Username: "alice", Password: "secret"}); err == nil {
		t.Fatal("expected Write to fail when target path is a directory")
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		t.Fatalf("failed to list data dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "config-") {
			t.Errorf("orphaned temp file left behind: %s", e.Name())
		}
	}
}

func TestConfigWriter_DataDirCreateFailure(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("failed to create blocking file: %v", err)
	}

	// The data dir path runs through a regular file, so MkdirAll must fail.
	dataDir := filepath.Join(blocker, "data")
	w := NewConfigWriter(dataDir, filepath.Join(dataDir, "GarminConnectConfig.json"))

	if err := w.Write(models.Credentials{Username: "alice", Password: "secret"}); err == nil {
		t.Fatal("expected Write to fail when data dir cannot be created")
	}
}
