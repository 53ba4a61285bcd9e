package ops

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/easel/internal/errors"
)

// maxReadBytes bounds files read by import.
const maxReadBytes = 16 << 20

// writeFileAtomic writes through a temp file in the destination directory
// and renames it into place, so an existing file survives any failure.
// path must already have passed ValidatePath.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		if _, ok := err.(*errors.EaselError); ok {
			return err
		}
		return errors.NewInternal(fmt.Errorf("failed to create file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	buf := bufio.NewWriter(file)
	if err := write(buf); err != nil {
		if _, ok := err.(*errors.EaselError); ok {
			return err
		}
		return errors.NewInternal(err)
	}
	if err := buf.Flush(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	// Close before rename (required on Windows)
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink planted after validation
	if isSymlink(path) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}

	// Windows refuses to rename over an existing file. Fail rather than
	// delete the original first.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("destination already exists; overwriting is not supported on Windows (choose a new path or delete the existing file)")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize file: %w", err))
	}

	success = true
	return nil
}

// readFileLimited reads a validated path without following symlinks.
func readFileLimited(path string) ([]byte, error) {
	file, err := openFileNoFollowRead(path)
	if err != nil {
		if _, ok := err.(*errors.EaselError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open file: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxReadBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read file: %w", err))
	}
	if len(data) > maxReadBytes {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("file exceeds %d bytes", maxReadBytes))
	}
	return data, nil
}

// defaultFilePath builds ~/.easel/exports/<name>-<timestamp><ext>.
func defaultFilePath(name, ext string, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s-%s%s", SanitizeForFilename(name), now.Format("2006-01-02T150405"), ext)
	return filepath.Join(dir, filename), nil
}
