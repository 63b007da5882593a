package services

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const DefaultIndexFile = "index.html"

// Store keeps one directory per site under Root, named by the site id.
type Store struct {
	Root string
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{Root: root}, nil
}

// SafeFileName accepts only a single path component that cannot climb out
// of a site directory.
func SafeFileName(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return "", ErrInvalidName
	}
	if filepath.Base(name) != name || filepath.Clean(name) != name {
		return "", ErrInvalidName
	}
	return name, nil
}

func (s *Store) SitePath(siteID string) string {
	return filepath.Join(s.Root, siteID)
}

func (s *Store) Create(siteID string) error {
	return os.MkdirAll(s.SitePath(siteID), 0o755)
}

func (s *Store) Exists(siteID string) (bool, error) {
	info, err := os.Stat(s.SitePath(siteID))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// WriteFile streams body into the named file of a site, replacing any file
// of the same name, and returns the number of bytes written.
func (s *Store) WriteFile(siteID, name string, body io.Reader) (int64, error) {
	name, err := SafeFileName(name)
	if err != nil {
		return 0, err
	}
	file, err := os.OpenFile(filepath.Join(s.SitePath(siteID), name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	size, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return size, err
}

// Open returns the named regular file of a site. Unsafe names and
// directories report ErrFileNotFound.
func (s *Store) Open(siteID, name string) (*os.File, fs.FileInfo, error) {
	name, err := SafeFileName(name)
	if err != nil {
		return nil, nil, ErrFileNotFound
	}
	file, err := os.Open(filepath.Join(s.SitePath(siteID), name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, ErrFileNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		_ = file.Close()
		return nil, nil, ErrFileNotFound
	}
	return file, info, nil
}

// List returns the names of the regular files currently in a site directory,
// sorted by name. A missing directory yields ErrSiteNotFound.
func (s *Store) List(siteID string) ([]string, error) {
	entries, err := os.ReadDir(s.SitePath(siteID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSiteNotFound
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Remove deletes a site directory tree. A missing directory is not an error.
func (s *Store) Remove(siteID string) error {
	return os.RemoveAll(s.SitePath(siteID))
}

// RootStrategy picks the file served at a site root from its sorted file
// names, or reports false to defer to the next strategy.
type RootStrategy func(files []string) (string, bool)

// RootStrategies is evaluated in order by ResolveRoot.
var RootStrategies = []RootStrategy{
	exactIndex,
	firstHTML,
	firstFile,
}

func exactIndex(files []string) (string, bool) {
	for _, name := range files {
		if name == DefaultIndexFile {
			return name, true
		}
	}
	return "", false
}

func firstHTML(files []string) (string, bool) {
	for _, name := range files {
		if strings.HasSuffix(name, ".html") {
			return name, true
		}
	}
	return "", false
}

func firstFile(files []string) (string, bool) {
	if len(files) == 0 {
		return "", false
	}
	return files[0], true
}

// ResolveRoot picks the file to serve for a bare site address.
func (s *Store) ResolveRoot(siteID string) (string, error) {
	files, err := s.List(siteID)
	if err != nil {
		return "", err
	}
	for _, strategy := range RootStrategies {
		if name, ok := strategy(files); ok {
			return name, nil
		}
	}
	return "", ErrNoFiles
}

// SiteDir is a directory found under the store root.
type SiteDir struct {
	Name    string
	ModTime time.Time
}

func (s *Store) Dirs() ([]SiteDir, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, err
	}
	dirs := make([]SiteDir, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, SiteDir{Name: entry.Name(), ModTime: info.ModTime()})
	}
	return dirs, nil
}
