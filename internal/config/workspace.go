package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
)

// Configuration keys.
const (
	KeyLastFolder = "workspace.last_folder"
	KeyBackend    = "workspace.backend"
	KeyDateFormat = "workspace.date_format"
	KeyCurrency   = "workspace.currency"
)

// Workspace defaults.
const (
	DefaultBackend    = "xlsx"
	DefaultDateFormat = "2006-01-02"
	DefaultCurrency   = "ko_KR"
)

var unsafeFileChars = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
)

// Workspace holds the settings that locate and describe the master file.
type Workspace struct {
	LastFolder string
	Backend    string
	DateFormat string
	Currency   string
}

// SetDefaults registers workspace defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBackend, DefaultBackend)
	v.SetDefault(KeyDateFormat, DefaultDateFormat)
	v.SetDefault(KeyCurrency, DefaultCurrency)
}

// LoadWorkspace reads the workspace settings from v.
func LoadWorkspace(v *viper.Viper) Workspace {
	w := Workspace{
		LastFolder: ExpandPath(v.GetString(KeyLastFolder)),
		Backend:    strings.ToLower(strings.TrimSpace(v.GetString(KeyBackend))),
		DateFormat: v.GetString(KeyDateFormat),
		Currency:   v.GetString(KeyCurrency),
	}
	if w.Backend == "" {
		w.Backend = DefaultBackend
	}
	if w.DateFormat == "" {
		w.DateFormat = DefaultDateFormat
	}
	if w.Currency == "" {
		w.Currency = DefaultCurrency
	}
	return w
}

// Validate checks the settings.
func (w Workspace) Validate() error {
	switch w.Backend {
	case "xlsx", "sqlite":
	default:
		return fmt.Errorf("%w: %s must be xlsx or sqlite, got %q", common.ErrInvalidConfig, KeyBackend, w.Backend)
	}
	return nil
}

// Folder returns folder if set, otherwise the remembered folder.
func (w Workspace) Folder(folder string) (string, error) {
	if folder = ExpandPath(strings.TrimSpace(folder)); folder != "" {
		return folder, nil
	}
	if w.LastFolder != "" {
		return w.LastFolder, nil
	}
	return "", fmt.Errorf("%w: no work folder given and %s is not set", common.ErrMissingConfig, KeyLastFolder)
}

// RememberFolder stores folder as the last work folder and writes the
// config file, creating it under the default path if none was loaded.
func RememberFolder(v *viper.Viper, folder string) error {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return fmt.Errorf("failed to resolve folder: %w", err)
	}
	v.Set(KeyLastFolder, abs)

	path := v.ConfigFileUsed()
	if path == "" {
		if path, err = DefaultConfigPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// DefaultConfigPath returns $HOME/.config/budget/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "budget", "config.yaml"), nil
}

// MasterFileName derives the master file name from the folder's base name,
// e.g. "/work/2024 과제" gives "2024 과제_master.xlsx".
func MasterFileName(folder, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "xlsx"
	}

	name := filepath.Base(filepath.Clean(folder))
	if folder == "" || name == "." || name == string(filepath.Separator) {
		return "master." + ext
	}
	return unsafeFileChars.Replace(name) + "_master." + ext
}

// ResolveMasterPath returns the master file path inside folder. A legacy
// "master.<ext>" is used when it exists and the folder-named file does not.
func ResolveMasterPath(folder, ext string) string {
	preferred := filepath.Join(folder, MasterFileName(folder, ext))
	if _, err := os.Stat(preferred); err == nil {
		return preferred
	}

	legacy := filepath.Join(folder, "master."+strings.TrimPrefix(ext, "."))
	if legacy != preferred {
		if _, err := os.Stat(legacy); err == nil {
			return legacy
		}
	}
	return preferred
}
