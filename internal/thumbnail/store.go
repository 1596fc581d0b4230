package thumbnail

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Store makes a generated thumbnail reachable and resolves references to
// URLs. The reference returned by Publish is what the Cache keeps.
type Store interface {
	Publish(ctx context.Context, name, localPath string) (ref string, err error)
	URL(ctx context.Context, ref string) (string, error)
}

// LocalStore serves thumbnails straight from the thumbnail directory Dir.
// URL fails when the referenced file is not on this host's disk, so a
// reference cached by another replica counts as a miss here.
type LocalStore struct {
	BaseURL string
	Dir     string
}

func (s LocalStore) Publish(_ context.Context, name, _ string) (string, error) {
	return name, nil
}

func (s LocalStore) URL(_ context.Context, ref string) (string, error) {
	if st, err := os.Stat(filepath.Join(s.Dir, filepath.FromSlash(ref))); err != nil {
		return "", err
	} else if st.Size() == 0 {
		return "", fmt.Errorf("thumbnail %s is empty", ref)
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + url.PathEscape(ref), nil
}
