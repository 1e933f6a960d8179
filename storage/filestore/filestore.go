/*
	Package filestore implements a simple file-based store where each named value
	is a file under a root directory.
*/
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/janelia-flyem/segvol/segvol"
	"github.com/janelia-flyem/segvol/storage"

	"github.com/blang/semver"
)

func init() {
	ver, err := semver.Make("0.2.0")
	if err != nil {
		segvol.Errorf("Unable to make semver in filestore: %v\n", err)
	}
	e := Engine{"filestore", "File-based named value store", ver}
	storage.RegisterEngine(e)
}

// --- Engine Implementation ------

type Engine struct {
	name   string
	desc   string
	semver semver.Version
}

func (e Engine) GetName() string {
	return e.name
}

func (e Engine) GetDescription() string {
	return e.desc
}

func (e Engine) GetSemVer() semver.Version {
	return e.semver
}

func (e Engine) String() string {
	return fmt.Sprintf("%s [%s]", e.name, e.semver)
}

// NewStore returns a file-based store. The passed Config must contain "path" setting.
func (e Engine) NewStore(config storage.StoreConfig) (storage.Store, bool, error) {
	return e.newStore(config)
}

func parseConfig(config storage.StoreConfig) (path string, err error) {
	path, found, err := config.GetString("path")
	if err != nil {
		return
	}
	if !found {
		err = fmt.Errorf("%q must be specified for filestore configuration", "path")
		return
	}
	testing, _, err := config.GetBool("testing")
	if err != nil {
		return
	}
	if testing {
		path = filepath.Join(os.TempDir(), path)
	}
	return
}

// FileStore keeps each named value in a file below a root directory.
type FileStore struct {
	path string
}

// newStore returns a file-based store, insuring a directory at the path.
func (e Engine) newStore(config storage.StoreConfig) (*FileStore, bool, error) {
	path, err := parseConfig(config)
	if err != nil {
		return nil, false, err
	}
	return Open(path)
}

// Open returns a store rooted at the directory, creating it if necessary.
func Open(path string) (*FileStore, bool, error) {
	var created bool
	if _, err := os.Stat(path); os.IsNotExist(err) {
		segvol.Infof("File store not already at path (%s). Creating ...\n", path)
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, false, err
		}
		created = true
	} else {
		segvol.Debugf("Found file store at %s (err = %v)\n", path, err)
	}
	return &FileStore{path: path}, created, nil
}

// ---- Store interface ------

func (s *FileStore) String() string {
	return fmt.Sprintf("file store @ %s", s.path)
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) fullpath(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("bad name %q for %s", name, s)
	}
	return filepath.Join(s.path, clean), nil
}

// Put writes the value into a temporary file that is then renamed into place.
func (s *FileStore) Put(ctx context.Context, name string, data []byte) error {
	fpath, err := s.fullpath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(fpath), ".tmp-"+filepath.Base(fpath))
	if err != nil {
		return err
	}
	tmpName := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpName)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, fpath)
}

// Get returns a value given a name.
func (s *FileStore) Get(ctx context.Context, name string) ([]byte, error) {
	fpath, err := s.fullpath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fpath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%q in %s: %w", name, s, storage.ErrNotFound)
	}
	return data, err
}

func (s *FileStore) Exists(ctx context.Context, name string) (bool, error) {
	fpath, err := s.fullpath(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(fpath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	fpath, err := s.fullpath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(fpath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) Names(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.path, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	sort.Strings(names)
	return names, err
}
