package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/optimystic/internal/model"
)

// ErrNotFound is returned when no saved workspace has the requested id.
var ErrNotFound = errors.New("project not found")

// Summary is the listing entry of a saved workspace.
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Mode      string `json:"mode"`
	UpdatedAt string `json:"updated_at"`
}

// Store keeps workspaces as one JSON file per project under a directory.
type Store struct {
	dir string
	mu  sync.RWMutex
	now func() time.Time
}

// NewStore opens (and creates) the projects directory below dataDir.
func NewStore(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "projects")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the directory holding the project files.
func (s *Store) Dir() string {
	return s.dir
}

// path maps an id to its file. Ids must be uuids so they cannot escape dir.
func (s *Store) path(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// Save writes the project, assigning an id when it has none, and returns the
// stored copy with its UpdatedAt stamp.
func (s *Store) Save(p model.Project) (model.Project, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = "Untitled"
	}
	path, err := s.path(p.ID)
	if err != nil {
		return model.Project{}, err
	}
	p.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to marshal project: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return model.Project{}, fmt.Errorf("failed to write project: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return model.Project{}, fmt.Errorf("failed to write project: %w", err)
	}
	return p, nil
}

// Get loads the project with the given id.
func (s *Store) Get(id string) (model.Project, error) {
	path, err := s.path(id)
	if err != nil {
		return model.Project{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return readProject(path)
}

func readProject(path string) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Project{}, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSuffix(filepath.Base(path), ".json"))
		}
		return model.Project{}, fmt.Errorf("failed to read project: %w", err)
	}
	var p model.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Project{}, fmt.Errorf("failed to parse project: %w", err)
	}
	return p, nil
}

// List returns all saved projects, most recently updated first.
// Files that cannot be parsed are skipped.
func (s *Store) List() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	out := []Summary{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		p, err := readProject(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, Summary{ID: p.ID, Name: p.Name, Mode: p.Mode, UpdatedAt: p.UpdatedAt})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Delete removes the project with the given id.
func (s *Store) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
