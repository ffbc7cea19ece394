package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tabsession/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tabsession/internal/shared/paths"
	"github.com/GriffinCanCode/tabsession/internal/shared/types"
)

// DefaultInternalPrefix marks reserved session names
const DefaultInternalPrefix = "_"

// StoreConfig configures a Store
type StoreConfig struct {
	Dir            string // defaults to paths.SessionDir()
	InternalPrefix string // defaults to DefaultInternalPrefix
}

// Store persists named sessions as one YAML file each
type Store struct {
	dir            string
	internalPrefix string
	logger         *logging.Logger

	mu      sync.Mutex // serialises writes and guards current
	current string
}

// NewStore creates a store rooted at cfg.Dir
func NewStore(cfg StoreConfig, logger *logging.Logger) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = paths.SessionDir(); err != nil {
			return nil, err
		}
	}
	prefix := cfg.InternalPrefix
	if prefix == "" {
		prefix = DefaultInternalPrefix
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{dir: dir, internalPrefix: prefix, logger: logger.Named("store")}, nil
}

// Dir returns the directory holding named sessions
func (s *Store) Dir() string {
	return s.dir
}

// IsInternal reports whether name is reserved
func (s *Store) IsInternal(name string) bool {
	return strings.HasPrefix(name, s.internalPrefix)
}

// Authorize rejects internal names unless force is set
func (s *Store) Authorize(name string, force bool) error {
	if s.IsInternal(name) && !force {
		return fmt.Errorf("%w: %s", ErrNameProtected, name)
	}
	return nil
}

// Path resolves the file backing a session name
func (s *Store) Path(name string) (string, error) {
	return paths.SessionFile(s.dir, name)
}

// Exists reports whether a regular session file is present for name
func (s *Store) Exists(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Save atomically writes doc under name
func (s *Store) Save(name string, doc *types.Document, force bool) error {
	if err := s.Authorize(name, force); err != nil {
		return err
	}
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return &fs.PathError{Op: "save", Path: path, Err: ErrTargetIsDirectory}
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return err
	}

	s.logger.Debug("Session written", zap.String("session", name), zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// Load reads and decodes the session stored under name
func (s *Store) Load(name string, force bool) (*types.Document, error) {
	if err := s.Authorize(name, force); err != nil {
		return nil, err
	}
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "load", Path: path, Err: ErrTargetIsDirectory}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// ReadRaw returns the stored bytes for name without decoding them
func (s *Store) ReadRaw(name string, force bool) ([]byte, error) {
	if err := s.Authorize(name, force); err != nil {
		return nil, err
	}
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return data, err
}

// Delete removes the session stored under name
func (s *Store) Delete(name string, force bool) error {
	if err := s.Authorize(name, force); err != nil {
		return err
	}
	path, err := s.Path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &fs.PathError{Op: "delete", Path: path, Err: ErrTargetIsDirectory}
	}
	return os.Remove(path)
}

// List returns stored sessions whose names match pattern (doublestar syntax, "" matches all)
func (s *Store) List(pattern string, includeInternal bool) ([]types.SessionInfo, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	dirEntries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []types.SessionInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	infos := make([]types.SessionInfo, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		name, ok := paths.SessionName(de.Name())
		if !ok {
			continue
		}
		internal := s.IsInternal(name)
		if internal && !includeInternal {
			continue
		}
		if pattern != "" {
			if matched, _ := doublestar.Match(pattern, name); !matched {
				continue
			}
		}
		fi, err := de.Info()
		if err != nil {
			continue
		}
		infos = append(infos, types.SessionInfo{
			Name:     name,
			Internal: internal,
			Path:     filepath.Join(s.dir, de.Name()),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Current returns the name most recently loaded or saved in this process
func (s *Store) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != ""
}

// SetCurrent moves the current-session pointer
func (s *Store) SetCurrent(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = name
}

// writeFileAtomic writes to a temp file in the target directory and renames it
// over path, so readers never observe a partial session.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	success := false
	defer func() {
		if !success {
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	success = true
	return nil
}
