package assets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store is the asset-storage collaborator: persist a binary blob, hand back
// a stable URL. The rest of the system only ever keeps the URL.
type Store interface {
	Save(ext string, r io.Reader) (string, error)
}

// DiskStore writes assets under a local directory and serves them by URL
// prefix. Swappable for an object-store implementation behind the same
// interface.
type DiskStore struct {
	Dir     string
	BaseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{Dir: dir, BaseURL: baseURL}, nil
}

func (s *DiskStore) Save(ext string, r io.Reader) (string, error) {
	name := uuid.New().String() + ext
	path := filepath.Join(s.Dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", err
	}

	return fmt.Sprintf("%s/%s", s.BaseURL, name), nil
}
