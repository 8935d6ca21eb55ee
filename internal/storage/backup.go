package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BackupTimestampLayout is the suffix format of backup file names.
const BackupTimestampLayout = "20060102_150405"

// BackupFileName returns the backup name for path taken at ts, placed in dir:
// "<stem>_backup_YYYYMMDD_HHMMSS<ext>".
func BackupFileName(dir, path string, ts time.Time) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf("%s_backup_%s%s", stem, ts.Format(BackupTimestampLayout), ext))
}

// availablePath returns path, or path with "_1", "_2", ... inserted before
// the extension when a file by that name already exists.
func availablePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// copyFile copies src to dst through a temporary file and an atomic rename,
// so dst is either the complete copy or untouched.
func copyFile(src, dst string) error {
	cleanSrc := filepath.Clean(src)
	cleanDst := filepath.Clean(dst)
	if cleanSrc != src || cleanDst != dst {
		return fmt.Errorf("invalid file paths")
	}

	// #nosec G304 - cleanSrc is validated above
	source, err := os.Open(cleanSrc)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := source.Close(); closeErr != nil {
			slog.Error("failed to close source file", "error", closeErr)
		}
	}()

	destination, err := os.CreateTemp(filepath.Dir(cleanDst), "."+filepath.Base(cleanDst)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpDst := destination.Name()

	if _, err := io.Copy(destination, source); err != nil {
		if closeErr := destination.Close(); closeErr != nil {
			slog.Error("failed to close destination file after copy error", "error", closeErr)
		}
		if rmErr := os.Remove(tmpDst); rmErr != nil {
			slog.Error("failed to remove temporary file after copy error", "error", rmErr)
		}
		return err
	}

	if err := destination.Close(); err != nil {
		if removeErr := os.Remove(tmpDst); removeErr != nil {
			slog.Error("failed to remove temporary file after close error", "error", removeErr)
		}
		return err
	}

	return os.Rename(tmpDst, cleanDst)
}

// writeAtomic streams write into a temporary file next to path and renames it
// over path once write and close both succeed.
func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			slog.Error("failed to remove temporary file after write error", "path", tmpPath, "error", rmErr)
		}
		return err
	}
	if err := tmp.Close(); err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			slog.Error("failed to remove temporary file after close error", "path", tmpPath, "error", rmErr)
		}
		return err
	}

	return os.Rename(tmpPath, path)
}

// fileInfo describes path for Info implementations.
func fileInfo(path string) (exists bool, size int64, modified time.Time, err error) {
	st, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, 0, time.Time{}, nil
	}
	if err != nil {
		return false, 0, time.Time{}, err
	}
	return true, st.Size(), st.ModTime(), nil
}
