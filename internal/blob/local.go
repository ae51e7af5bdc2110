package blob

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	maxImageBytes = 5 << 20
	maxAudioBytes = 10 << 20
)

// LocalStore keeps uploaded blobs on the local filesystem under one
// directory per content kind and serves them as URL-path locators.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the per-kind upload directories under root. Locators
// are rooted at baseURL (default "/uploads").
func NewLocalStore(root, baseURL string, kinds ...string) (*LocalStore, error) {
	if baseURL == "" {
		baseURL = "/uploads"
	}

	for _, kind := range kinds {
		if err := os.MkdirAll(filepath.Join(root, kind), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir %s: %w", kind, err)
		}
	}

	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Root returns the filesystem directory backing the store, for static file
// serving.
func (s *LocalStore) Root() string { return s.root }

// Store writes the payload under its kind directory with a
// collision-resistant name and returns the locator. The declared MIME type
// is trusted for the file extension when known; otherwise the content is
// sniffed.
func (s *LocalStore) Store(ctx context.Context, data []byte, kind, mime string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty payload")
	}
	if err := checkPayload(data, kind); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%d-%s%s",
		strings.TrimSuffix(kind, "s"),
		time.Now().UnixNano(),
		uuid.NewString()[:8],
		extensionFor(data, mime),
	)

	dir := filepath.Join(s.root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir %s: %w", kind, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}

	return s.baseURL + "/" + kind + "/" + name, nil
}

// Resolve maps a locator produced by Store back to its local file path.
func (s *LocalStore) Resolve(locator string) (string, error) {
	rel, ok := strings.CutPrefix(locator, s.baseURL+"/")
	if !ok {
		return "", fmt.Errorf("locator %q outside store", locator)
	}

	// reject traversal out of the upload root
	rel = path.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid locator %q", locator)
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if _, err := os.Stat(full); err != nil {
		return "", fmt.Errorf("stat blob: %w", err)
	}
	return full, nil
}

func checkPayload(data []byte, kind string) error {
	detected := mimetype.Detect(data)

	switch kind {
	case "images", "profiles":
		if len(data) > maxImageBytes {
			return fmt.Errorf("image exceeds %d bytes", maxImageBytes)
		}
		if !strings.HasPrefix(detected.String(), "image/") {
			return fmt.Errorf("payload is %s, not an image", detected.String())
		}
	case "audio", "translates":
		if len(data) > maxAudioBytes {
			return fmt.Errorf("audio exceeds %d bytes", maxAudioBytes)
		}
	}
	return nil
}

// Extensions for the MIME types browsers actually declare on uploads. Some
// (audio/webm) are missing from the sniffing database.
var declaredExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"audio/webm": ".webm",
	"video/webm": ".webm",
	"audio/mpeg": ".mp3",
	"audio/ogg":  ".ogg",
	"audio/wav":  ".wav",
	"audio/mp4":  ".m4a",
}

func extensionFor(data []byte, declared string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if ext, ok := declaredExtensions[declared]; ok {
		return ext
	}
	if declared != "" {
		if m := mimetype.Lookup(declared); m != nil && m.Extension() != "" {
			return m.Extension()
		}
	}
	if ext := mimetype.Detect(data).Extension(); ext != "" {
		return ext
	}
	return ".bin"
}
