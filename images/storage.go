package images

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"pressroom/slug"
)

// Upload directories, expanded with the upload time like "posts/2024/05".
const (
	PostCoverDir  = "posts/%Y/%m"
	AttachmentDir = "attachments/%Y/%m"
	FaviconDir    = "assets/favicon/%Y/%m"
)

var ErrOutsideRoot = errors.New("media name escapes the media root")

// Storage keeps uploaded files below Root. Names handed out by Save are
// slash separated and relative to Root, the way they are stored in the DB.
type Storage struct {
	Root string
	now  func() time.Time
}

func NewStorage(root string) *Storage {
	return &Storage{Root: root, now: time.Now}
}

// Path resolves a stored media name to a file path inside Root.
func (s *Storage) Path(name string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(name))
	if clean == "/" || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}
	return filepath.Join(s.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Save writes src under dir (strftime-style %Y/%m/%d are expanded) using a
// slugified version of filename, adding a random suffix when the name is
// taken. It returns the stored media name.
func (s *Storage) Save(dir, filename string, src io.Reader) (string, error) {
	dir = expandDate(dir, s.now())

	ext := strings.ToLower(filepath.Ext(filename))
	base := slug.Slugify(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "file"
	}

	if err := os.MkdirAll(filepath.Join(s.Root, filepath.FromSlash(dir)), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	name := path.Join(dir, base+ext)
	for attempt := 0; ; attempt++ {
		p, err := s.Path(name)
		if err != nil {
			return "", err
		}
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) && attempt < 10 {
			name = path.Join(dir, base+"_"+slug.RandomLetters(7)+ext)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create media file: %w", err)
		}
		if _, err := io.Copy(f, src); err != nil {
			f.Close()
			os.Remove(p)
			return "", fmt.Errorf("write media file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close media file: %w", err)
		}
		return name, nil
	}
}

// Delete removes a stored file; a file that is already gone is not an error.
func (s *Storage) Delete(name string) error {
	if name == "" {
		return nil
	}
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ValidatePNG only looks at the extension.
func ValidatePNG(name string) error {
	if !strings.HasSuffix(strings.ToLower(name), ".png") {
		return errors.New("image must be a PNG file")
	}
	return nil
}

func expandDate(dir string, t time.Time) string {
	r := strings.NewReplacer(
		"%Y", t.Format("2006"),
		"%m", t.Format("01"),
		"%d", t.Format("02"),
	)
	return r.Replace(dir)
}
