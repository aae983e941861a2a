// Package garmin handles the file-based hand-off to the external garmindb
// sync tool: writing its JSON config document and invoking it as a subprocess.
package garmin

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fitbridge/fitbridge/pkg/models"
)

// ConfigDocument is the JSON document the sync tool reads. Every write
// serializes the full document; the on-disk file is replaced, never merged.
type ConfigDocument struct {
	Connection ConnectionSection `json:"connection"`
	Settings   SettingsSection   `json:"settings"`
}

// ConnectionSection carries the credentials the tool logs in with.
type ConnectionSection struct {
	Username             string `json:"username"`
	Password             string `json:"password"`
	AuthenticationMethod string `json:"authentication_method"`
}

// SettingsSection tells the tool where to work and what to download.
type SettingsSection struct {
	DataDirectory string           `json:"data_directory"`
	Database      DatabaseSettings `json:"database"`
	Download      DownloadSettings `json:"download"`
}

type DatabaseSettings struct {
	Name string `json:"name"`
}

type DownloadSettings struct {
	DataTypes []string `json:"data_types"`
}

// ConfigWriter atomically replaces the sync tool's config file. Outside an
// active sync request the file on disk always has blank credential fields.
type ConfigWriter struct {
	dataDir    string
	configPath string
}

// NewConfigWriter creates a writer managing configPath inside dataDir.
func NewConfigWriter(dataDir, configPath string) *ConfigWriter {
	return &ConfigWriter{dataDir: dataDir, configPath: configPath}
}

// Write serializes a complete config document carrying creds and atomically
// replaces the config file. The temp file is created in the target directory
// so the rename cannot cross filesystems; a crash mid-write leaves either the
// old complete file or the new complete file, never a torn one.
func (w *ConfigWriter) Write(creds models.Credentials) error {
	if err := os.MkdirAll(w.dataDir, 0o700); err != nil {
		return fmt.Errorf("creating data directory %s: %w", w.dataDir, err)
	}

	doc := w.document(creds)

	tmp, err := os.CreateTemp(w.dataDir, "config-*.json")
	if err != nil {
		return fmt.Errorf("creating temp config file: %w", err)
	}
	tmpPath := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing config document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp config file: %w", err)
	}

	if err := os.Rename(tmpPath, w.configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing config file: %w", err)
	}
	return nil
}

// Clear replaces the config file with a document whose credential fields are
// empty strings. A previously absent file is not an error; after Clear the
// on-disk file exists and carries no credentials either way.
func (w *ConfigWriter) Clear() error {
	return w.Write(models.Credentials{})
}

// document builds the full default document with creds filled in. The
// non-credential settings come from this service's own configuration, so an
// on-disk file is never read back or merged.
func (w *ConfigWriter) document(creds models.Credentials) ConfigDocument {
	return ConfigDocument{
		Connection: ConnectionSection{
			Username:             creds.Username,
			Password:             creds.Password,
			AuthenticationMethod: "GARMIN",
		},
		Settings: SettingsSection{
			DataDirectory: w.dataDir,
			Database:      DatabaseSettings{Name: "garmin.db"},
			Download:      DownloadSettings{DataTypes: []string{"activities"}},
		},
	}
}
