// Package runstore persists fit results as JSON files, one per run.
package runstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/mixclust/internal/bicluster"
	"github.com/KaramelBytes/mixclust/internal/utils"
)

const runExt = ".json"

var (
	ErrNotFound  = errors.New("run not found")
	ErrAmbiguous = errors.New("run id prefix is ambiguous")
)

// Run is one persisted analysis.
type Run struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Source    string            `json:"source"`
	CreatedAt time.Time         `json:"created_at"`
	Result    *bicluster.Result `json:"result"`
}

// NewRun wraps a result with a fresh id.
func NewRun(name, source string, r *bicluster.Result) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    source,
		CreatedAt: time.Now(),
		Result:    r,
	}
}

// ShortID is the first block of the id.
func (r *Run) ShortID() string {
	if i := strings.IndexByte(r.ID, '-'); i > 0 {
		return r.ID[:i]
	}
	return r.ID
}

// Store is a directory of run files.
type Store struct {
	dir string
}

func New(dir string) *Store { return &Store{dir: utils.ExpandHome(dir)} }

func (s *Store) Dir() string { return s.dir }

// Save writes the run using atomic write.
func (s *Store) Save(r *Run) error {
	if r == nil || r.ID == "" {
		return errors.New("run id not set")
	}
	if err := utils.EnsureDir(s.dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	data, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.dir, r.ID+runExt), data)
}

// Load reads a run by full id or unique id prefix.
func (s *Store) Load(id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	path := filepath.Join(s.dir, id+runExt)
	if _, err := os.Stat(path); err != nil {
		ids, err := s.ids()
		if err != nil {
			return nil, err
		}
		var match []string
		for _, cand := range ids {
			if strings.HasPrefix(cand, id) {
				match = append(match, cand)
			}
		}
		switch len(match) {
		case 0:
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		case 1:
			path = filepath.Join(s.dir, match[0]+runExt)
		default:
			return nil, fmt.Errorf("%s matches %d runs: %w", id, len(match), ErrAmbiguous)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse run: %w", err)
	}
	return &r, nil
}

// List returns all runs, newest first. Unreadable files are skipped.
func (s *Store) List() ([]*Run, error) {
	ids, err := s.ids()
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	out := make([]*Run, 0, len(ids))
	for _, id := range ids {
		r, err := s.Load(id)
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ids() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read runs dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != runExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), runExt))
	}
	sort.Strings(ids)
	return ids, nil
}
