package gold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// FileExtension is the extension of every gold file.
const FileExtension = ".json"

// Key identifies one gold record.
type Key struct {
	Class string // test group, e.g. "Parser"
	Test  string // test name; may contain '/' for subtests
	Sub   string // assertion name within the test; may contain '/'
}

// Path returns the slash-separated location of the record relative to the
// golds root: <Class>/<Test>/<Sub>.json.
func (k Key) Path() string {
	return path.Join(k.Class, k.Test, k.Sub+FileExtension)
}

// String returns Path.
func (k Key) String() string {
	return k.Path()
}

// Child returns the key of a nested assertion name.
func (k Key) Child(name string) Key {
	return Key{Class: k.Class, Test: k.Test, Sub: path.Join(k.Sub, name)}
}

// Validate checks that every component is present and stays inside the root.
func (k Key) Validate() error {
	for _, part := range []struct{ name, value string }{
		{"class", k.Class},
		{"test", k.Test},
		{"sub-name", k.Sub},
	} {
		if part.value == "" {
			return fmt.Errorf("gold key: %s is required", part.name)
		}
		for _, seg := range strings.Split(part.value, "/") {
			if seg == "" || seg == "." || seg == ".." {
				return fmt.Errorf("gold key: invalid %s %q", part.name, part.value)
			}
		}
	}
	return nil
}

// Store persists gold records on a billy filesystem.
type Store struct {
	fs billy.Filesystem
}

// NewStore creates a Store on top of fs. The filesystem root is the golds root.
func NewStore(fs billy.Filesystem) *Store {
	return &Store{fs: fs}
}

// NewDirStore creates a Store rooted at a directory on the local disk.
func NewDirStore(root string) *Store {
	return NewStore(osfs.New(root))
}

// Root returns the golds root directory.
func (s *Store) Root() string {
	return s.fs.Root()
}

// Location returns the path of key as shown in messages.
func (s *Store) Location(key Key) string {
	return filepath.Join(s.fs.Root(), filepath.FromSlash(key.Path()))
}

// Exists reports whether a non-empty record exists for key.
func (s *Store) Exists(key Key) bool {
	info, err := s.fs.Stat(key.Path())
	return err == nil && !info.IsDir() && info.Size() > 0
}

// Read returns the raw text of a record. A missing or empty file yields a
// *MissingGoldError; any other failure a *StorageError.
func (s *Store) Read(key Key) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	data, err := util.ReadFile(s.fs, key.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &MissingGoldError{Path: s.Location(key)}
		}
		return "", &StorageError{Op: "read", Path: s.Location(key), Err: err}
	}
	if len(data) == 0 {
		return "", &MissingGoldError{Path: s.Location(key)}
	}
	return string(data), nil
}

// Write replaces the record for key with text, creating parent directories.
func (s *Store) Write(key Key, text string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	p := key.Path()
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return &StorageError{Op: "write", Path: s.Location(key), Err: err}
	}
	if err := util.WriteFile(s.fs, p, []byte(text), 0o644); err != nil {
		return &StorageError{Op: "write", Path: s.Location(key), Err: err}
	}
	return nil
}

// Files returns the slash-separated paths of every gold file under the root,
// sorted.
func (s *Store) Files() ([]string, error) {
	var files []string
	err := util.Walk(s.fs, "/", func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && p == "/" {
				return filepath.SkipDir
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(p, FileExtension) {
			return nil
		}
		files = append(files, filepath.ToSlash(strings.TrimPrefix(p, "/")))
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &StorageError{Op: "read", Path: s.fs.Root(), Err: err}
	}
	sort.Strings(files)
	return files, nil
}

// ReadFile returns the raw text of a gold file given its relative path, as
// returned by Files.
func (s *Store) ReadFile(rel string) (string, error) {
	data, err := util.ReadFile(s.fs, rel)
	if err != nil {
		return "", &StorageError{Op: "read", Path: filepath.Join(s.fs.Root(), filepath.FromSlash(rel)), Err: err}
	}
	return string(data), nil
}

// WriteFile replaces the gold file at rel, a slash-separated path relative to
// the root, creating parent directories.
func (s *Store) WriteFile(rel, text string) error {
	location := filepath.Join(s.fs.Root(), filepath.FromSlash(rel))
	if err := s.fs.MkdirAll(path.Dir(rel), 0o755); err != nil {
		return &StorageError{Op: "write", Path: location, Err: err}
	}
	if err := util.WriteFile(s.fs, rel, []byte(text), 0o644); err != nil {
		return &StorageError{Op: "write", Path: location, Err: err}
	}
	return nil
}
