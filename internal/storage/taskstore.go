package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/doer/pkg/models"
)

var (
	// ErrStoreUnavailable is returned by Load when the task file exists but
	// cannot be read. The store is left empty and usable.
	ErrStoreUnavailable = errors.New("task store unavailable")
	// ErrSaveFailed is returned by Save when the task file cannot be written.
	// The in-memory tasks are unaffected.
	ErrSaveFailed = errors.New("saving task store failed")
)

// LoadReport summarises a Load: how many tasks were read and which rows
// were rejected.
type LoadReport struct {
	Loaded  int
	Skipped []*RecordError
}

// TaskStore owns the in-memory task collection and its flat-file backing.
type TaskStore interface {
	Add(task models.Task) error
	Remove(id int) bool
	Get(id int) (models.Task, bool)
	SetStatus(id int, status models.Status) bool
	All() []models.Task
	NextID() int
	Len() int
	Load() (*LoadReport, error)
	Save() error
	Path() string
}

type fileTaskStore struct {
	path  string
	tasks map[int]*models.Task
	order []int
	// highWater is the largest id ever held, so ids freed by Remove are
	// not handed out again while the store is open.
	highWater int
}

// NewTaskStore creates an empty TaskStore backed by the CSV file at path.
// Call Load to read existing tasks.
func NewTaskStore(path string) TaskStore {
	return &fileTaskStore{
		path:  path,
		tasks: make(map[int]*models.Task),
	}
}

func (s *fileTaskStore) Path() string {
	return s.path
}

func (s *fileTaskStore) Add(task models.Task) error {
	if task.ID <= 0 {
		return fmt.Errorf("adding task: id must be positive, got %d", task.ID)
	}
	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("adding task: task %d already exists", task.ID)
	}
	t := task.Clone()
	t.Description = NormalizeText(t.Description)
	s.tasks[t.ID] = &t
	s.order = append(s.order, t.ID)
	if t.ID > s.highWater {
		s.highWater = t.ID
	}
	return nil
}

func (s *fileTaskStore) Remove(id int) bool {
	if _, exists := s.tasks[id]; !exists {
		return false
	}
	delete(s.tasks, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *fileTaskStore) Get(id int) (models.Task, bool) {
	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return t.Clone(), true
}

func (s *fileTaskStore) SetStatus(id int, status models.Status) bool {
	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	t.Status = status
	return true
}

// All returns copies of every task in insertion order.
func (s *fileTaskStore) All() []models.Task {
	out := make([]models.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id].Clone())
	}
	return out
}

func (s *fileTaskStore) NextID() int {
	return s.highWater + 1
}

func (s *fileTaskStore) Len() int {
	return len(s.tasks)
}

func (s *fileTaskStore) reset() {
	s.tasks = make(map[int]*models.Task)
	s.order = nil
	s.highWater = 0
}

// Load replaces the in-memory tasks with the contents of the task file.
// A missing file yields an empty store. Header rows, blank rows and
// malformed rows are skipped and listed in the report.
func (s *fileTaskStore) Load() (*LoadReport, error) {
	s.reset()
	report := &LoadReport{}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return report, fmt.Errorf("%w: opening %s: %w", ErrStoreUnavailable, s.path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				report.Skipped = append(report.Skipped, &RecordError{Line: perr.Line, Reason: perr.Err.Error()})
				continue
			}
			s.reset()
			return &LoadReport{}, fmt.Errorf("%w: reading %s: %w", ErrStoreUnavailable, s.path, err)
		}
		if IsSkippable(record) {
			continue
		}

		line, _ := r.FieldPos(0)
		task, err := DecodeRecord(record)
		if err != nil {
			var rerr *RecordError
			if errors.As(err, &rerr) {
				rerr.Line = line
				report.Skipped = append(report.Skipped, rerr)
			}
			continue
		}
		if _, dup := s.tasks[task.ID]; dup {
			report.Skipped = append(report.Skipped, &RecordError{Line: line, Reason: fmt.Sprintf("duplicate id %d", task.ID)})
			continue
		}
		if err := s.Add(task); err != nil {
			report.Skipped = append(report.Skipped, &RecordError{Line: line, Reason: err.Error()})
			continue
		}
		report.Loaded++
	}

	return report, nil
}

// Save rewrites the task file in full: a header row followed by one row per
// task. The file is replaced atomically so a failed write leaves the
// previous contents intact. Writers from separate processes are serialised
// through a sidecar lock file.
func (s *fileTaskStore) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: creating directory: %w", ErrSaveFailed, err)
	}

	release, err := acquireLock(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	defer func() { _ = release() }()

	tmp, err := os.CreateTemp(dir, ".tasks-*.csv")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %w", ErrSaveFailed, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := writeRecords(tmp, s.All()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: writing records: %w", ErrSaveFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing temp file: %w", ErrSaveFailed, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: replacing %s: %w", ErrSaveFailed, s.path, err)
	}
	return nil
}

func writeRecords(w io.Writer, tasks []models.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, t := range tasks {
		if err := cw.Write(EncodeTask(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
