package delivery

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"pedidobot/internal/library"
	"pedidobot/internal/services"
)

var (
	// ErrPathEscape marks a file that resolves outside the library root.
	ErrPathEscape = fmt.Errorf("%w: file resolves outside the library root", services.ErrPathSecurity)
	// ErrNoFile marks a library item without a stored file.
	ErrNoFile = fmt.Errorf("%w: library item has no file", services.ErrValidation)
	// ErrFileMissing marks a stored path that no longer exists.
	ErrFileMissing = fmt.Errorf("%w: library file missing on disk", services.ErrNotFound)
	// ErrTooLarge marks a file above the send limit.
	ErrTooLarge = fmt.Errorf("%w: file exceeds send limit", services.ErrValidation)
)

// SizeError reports the actual size and limit for an oversized file.
type SizeError struct {
	Size  int64
	Limit int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%s is larger than the %s limit", HumanSize(e.Size), HumanSize(e.Limit))
}

func (e *SizeError) Unwrap() error { return ErrTooLarge }

// HumanSize renders a byte count for chat replies.
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// FileSender validates library files and hands them to a Replier.
type FileSender struct {
	replier  Replier
	root     string
	maxBytes int64
}

// NewFileSender builds a sender rooted at libraryDir.
func NewFileSender(replier Replier, libraryDir string, maxBytes int64) *FileSender {
	return &FileSender{replier: replier, root: libraryDir, maxBytes: maxBytes}
}

// MaxBytes returns the configured size limit.
func (s *FileSender) MaxBytes() int64 { return s.maxBytes }

// Sent describes a delivered document.
type Sent struct {
	Path string
	Size int64
	Doc  Document
}

// Resolve returns the symlink-free absolute path of item's file and its size
// after the containment, existence and size checks.
func (s *FileSender) Resolve(item library.Item) (string, int64, error) {
	raw := strings.TrimSpace(item.FilePath)
	if raw == "" {
		return "", 0, ErrNoFile
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", 0, services.Wrap(services.ErrConfiguration, "delivery", "resolve", "library root", err)
	}
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return "", 0, services.Wrap(services.ErrConfiguration, "delivery", "resolve", "library root unavailable", err)
	}
	if !filepath.IsAbs(raw) {
		raw = filepath.Join(root, raw)
	}

	resolved, err := filepath.EvalSymlinks(raw)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", 0, ErrFileMissing
		}
		return "", 0, services.Wrap(services.ErrIO, "delivery", "resolve", "evaluate path", err)
	}
	if !within(root, resolved) {
		return "", 0, ErrPathEscape
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", 0, ErrFileMissing
		}
		return "", 0, services.Wrap(services.ErrIO, "delivery", "resolve", "stat file", err)
	}
	if !info.Mode().IsRegular() {
		return "", 0, fmt.Errorf("%w: not a regular file", ErrNoFile)
	}
	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return "", 0, &SizeError{Size: info.Size(), Limit: s.maxBytes}
	}
	return resolved, info.Size(), nil
}

// Send resolves item's file and sends it as a document to channelID.
func (s *FileSender) Send(ctx context.Context, channelID string, item library.Item) (Sent, error) {
	path, size, err := s.Resolve(item)
	if err != nil {
		return Sent{}, err
	}
	name := strings.TrimSpace(item.OriginalName)
	if name == "" {
		name = filepath.Base(path)
	}
	doc := Document{
		Path:     path,
		FileName: name,
		Mime:     mimeFor(name),
		Caption:  caption(item, size),
	}
	if err := s.replier.SendDocument(ctx, channelID, doc); err != nil {
		return Sent{}, err
	}
	return Sent{Path: path, Size: size, Doc: doc}, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func mimeFor(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return "application/octet-stream"
}

func caption(item library.Item, size int64) string {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = item.OriginalName
	}
	if item.Chapter != "" {
		title += " - cap " + item.Chapter
	}
	return fmt.Sprintf("%s (%s)", title, HumanSize(size))
}
