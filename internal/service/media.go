// Package service holds the business operations behind the views.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"yatube/internal/forms"
	"yatube/internal/models"

	"github.com/google/uuid"
)

// PostImageDir is the media subdirectory holding post images.
const PostImageDir = "posts"

var unsafeNameChars = regexp.MustCompile(`[^\w.-]+`)

// MediaStore writes uploaded files under a media root served at a URL prefix.
type MediaStore struct {
	root      string
	urlPrefix string
}

// NewMediaStore returns a store rooted at root and served under urlPrefix.
func NewMediaStore(root, urlPrefix string) *MediaStore {
	if urlPrefix == "" {
		urlPrefix = "/media/"
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &MediaStore{root: root, urlPrefix: urlPrefix}
}

// Root returns the media directory.
func (m *MediaStore) Root() string {
	return m.root
}

// URLPrefix returns the public prefix media is served under.
func (m *MediaStore) URLPrefix() string {
	return m.urlPrefix
}

// SavePostImage stores an upload as posts/<name> and returns that relative path.
// A name already taken gets a short random suffix.
func (m *MediaStore) SavePostImage(_ context.Context, u *forms.Upload) (string, error) {
	if u == nil || len(u.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	dir := filepath.Join(m.root, PostImageDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", models.NewInternalError(err)
	}

	name := sanitizeFilename(u.Filename, u.Format)
	for attempt := 0; attempt < 5; attempt++ {
		candidate := name
		if attempt > 0 {
			ext := filepath.Ext(name)
			candidate = fmt.Sprintf("%s_%s%s", strings.TrimSuffix(name, ext), uuid.NewString()[:7], ext)
		}
		f, err := os.OpenFile(filepath.Join(dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", models.NewInternalError(err)
		}
		_, werr := f.Write(u.Content)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(f.Name())
			return "", models.NewInternalError(errors.Join(werr, cerr))
		}
		return path.Join(PostImageDir, candidate), nil
	}
	return "", models.NewInternalError(fmt.Errorf("could not find a free name for %q", name))
}

// URL returns the public URL of a stored relative path, or "" when rel is empty.
func (m *MediaStore) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return m.urlPrefix + strings.TrimPrefix(rel, "/")
}

// Remove deletes a stored file, ignoring files already gone.
func (m *MediaStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(m.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func sanitizeFilename(name, format string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "image"
	}
	if filepath.Ext(name) == "" && format != "" {
		name += "." + format
	}
	return name
}
