package storage

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"inkwell/internal/models"

	"github.com/google/uuid"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// MediaStore writes uploaded post images under a media root on disk. Stored
// paths are relative ("posts/<name>") so the root can move without touching
// the database.
type MediaStore struct {
	root string
}

func NewMediaStore(root string) *MediaStore {
	return &MediaStore{root: root}
}

// Save validates that content decodes as an image and writes it under
// posts/ keeping the uploaded base name, returning the relative path to
// persist. Non-image uploads are rejected with a validation error.
func (s *MediaStore) Save(filename string, content []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("Upload a valid image.")
	}

	name := sanitizeName(filename)
	if filepath.Ext(name) == "" {
		name += "." + format
	}

	dir := filepath.Join(s.root, "posts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", models.NewInternalError(fmt.Errorf("create media dir: %w", err))
	}

	// A name already on disk gets a random suffix instead of overwriting
	// the earlier upload.
	if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext) + "_" + uuid.NewString()[:8] + ext
	}

	if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
		return "", models.NewInternalError(fmt.Errorf("write media file: %w", err))
	}

	return "posts/" + name, nil
}

// sanitizeName reduces an uploaded filename to its base name with only
// letters, digits, dot, dash and underscore, safe to use on disk.
func sanitizeName(filename string) string {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		return "upload"
	}
	return name
}

// Open returns the absolute path for a stored relative path, refusing
// anything that escapes the media root.
func (s *MediaStore) Open(rel string) (string, error) {
	clean := filepath.Clean(rel)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", models.NewValidationError("Invalid media path.")
	}
	abs := filepath.Join(s.root, clean)
	if _, err := os.Stat(abs); err != nil {
		return "", models.NewNotFoundError("Media", rel)
	}
	return abs, nil
}
