// Package fileutil copies files into the library root.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"pedidobot/internal/textutil"
)

// maxNameAttempts bounds the numeric suffixes tried when a name is taken.
const maxNameAttempts = 1000

// Ingest copies src into root/subdir under a sanitized, unused file name and
// returns the destination path and its size. The source is left in place.
func Ingest(src, root, subdir string) (string, int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", 0, fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", 0, fmt.Errorf("source %q is not a regular file", src)
	}

	dir := filepath.Join(root, textutil.SanitizeToken(subdir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create library directory: %w", err)
	}
	name := textutil.SanitizeFileName(filepath.Base(src))
	if name == "" {
		name = "archivo"
	}
	dst, err := freeName(dir, name)
	if err != nil {
		return "", 0, err
	}
	if err := CopyFileVerified(src, dst); err != nil {
		return "", 0, err
	}
	return dst, info.Size(), nil
}

func freeName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < maxNameAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("stat destination: %w", err)
		}
	}
	return "", fmt.Errorf("no free file name for %q in %s", name, dir)
}

// CopyFileVerified streams src to dst with SHA256 + size integrity verification.
// The copy lands in a temp file beside dst and is renamed into place, so dst
// never holds a partial file.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dst), ".ingest-*")
	if err != nil {
		return err
	}
	tmp := out.Name()
	defer func() {
		_ = out.Close()
		_ = os.Remove(tmp)
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if written != srcSize {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}
