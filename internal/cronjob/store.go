package cronjob

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/moltdash/moltdash/internal/logger"
)

const (
	// JobsFilename is the jobs document name within the cron directory.
	JobsFilename = "jobs.json"
)

// Store owns the durable jobs collection. All mutation funnels through it;
// no other component touches the file. Mutations are full read-modify-write
// cycles persisted atomically, so concurrent readers never observe a torn
// document. Cross-process races resolve last-write-wins.
type Store struct {
	path   string
	logger *logger.Logger

	mu  sync.Mutex
	now func() int64
}

// NewStore creates a Store over <cronDir>/jobs.json.
func NewStore(cronDir string, log *logger.Logger) *Store {
	return &Store{
		path:   filepath.Join(cronDir, JobsFilename),
		logger: log,
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

// Path returns the jobs document path.
func (s *Store) Path() string {
	return s.path
}

// List returns the collection with jobs ordered most recently touched first.
func (s *Store) List() (Collection, error) {
	const op = "list"

	data, err := s.load(op)
	if err != nil {
		return Collection{}, err
	}

	sort.SliceStable(data.Jobs, func(i, j int) bool {
		return data.Jobs[i].UpdatedAtMs > data.Jobs[j].UpdatedAtMs
	})
	return data, nil
}

// Get returns a single job by id.
func (s *Store) Get(id string) (Job, error) {
	const op = "get"

	data, err := s.load(op)
	if err != nil {
		return Job{}, err
	}
	for _, job := range data.Jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return Job{}, newNotFoundError(op, id)
}

// Create normalizes the input, stamps timestamps, appends the job to the
// collection and persists it.
func (s *Store) Create(input JobInput) (Job, error) {
	const op = "create"

	job, err := Normalize(input)
	if err != nil {
		return Job{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(op)
	if err != nil {
		return Job{}, err
	}

	job = touchAt(job, s.now())
	data.Jobs = append(data.Jobs, job)

	if err := s.save(op, data); err != nil {
		return Job{}, err
	}

	s.logger.Info("cron job created",
		logger.Field{Key: "job_id", Value: job.ID},
		logger.Field{Key: "name", Value: job.Name},
		logger.Field{Key: "schedule_kind", Value: job.Schedule.Kind})
	return job, nil
}

// Update merges a patch into the stored job. Scalar fields replace the
// stored value when present; the compound schedule/payload/delivery fields
// replace wholesale only when supplied and are otherwise kept unchanged.
// The payload kind is re-derived from the effective session target.
func (s *Store) Update(id string, patch JobPatch) (Job, error) {
	const op = "update"

	if patch.Schedule != nil {
		if err := validateSchedule(op, *patch.Schedule); err != nil {
			return Job{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(op)
	if err != nil {
		return Job{}, err
	}

	index := indexOf(data.Jobs, id)
	if index == -1 {
		return Job{}, newNotFoundError(op, id)
	}

	merged := mergePatch(data.Jobs[index], patch)
	merged = touchAt(merged, s.now())
	data.Jobs[index] = merged

	if err := s.save(op, data); err != nil {
		return Job{}, err
	}

	s.logger.Info("cron job updated",
		logger.Field{Key: "job_id", Value: id})
	return merged, nil
}

// Toggle sets enabled to the explicit value when given, otherwise inverts
// the current value.
func (s *Store) Toggle(id string, explicit *bool) (Job, error) {
	const op = "toggle"

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(op)
	if err != nil {
		return Job{}, err
	}

	index := indexOf(data.Jobs, id)
	if index == -1 {
		return Job{}, newNotFoundError(op, id)
	}

	job := data.Jobs[index]
	if explicit != nil {
		job.Enabled = *explicit
	} else {
		job.Enabled = !job.Enabled
	}
	job = touchAt(job, s.now())
	data.Jobs[index] = job

	if err := s.save(op, data); err != nil {
		return Job{}, err
	}

	s.logger.Info("cron job toggled",
		logger.Field{Key: "job_id", Value: id},
		logger.Field{Key: "enabled", Value: job.Enabled})
	return job, nil
}

// Delete removes a job from the collection.
func (s *Store) Delete(id string) error {
	const op = "delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(op)
	if err != nil {
		return err
	}

	filtered := data.Jobs[:0:0]
	for _, job := range data.Jobs {
		if job.ID != id {
			filtered = append(filtered, job)
		}
	}
	if len(filtered) == len(data.Jobs) {
		return newNotFoundError(op, id)
	}
	data.Jobs = filtered

	if err := s.save(op, data); err != nil {
		return err
	}

	s.logger.Info("cron job deleted",
		logger.Field{Key: "job_id", Value: id})
	return nil
}

// mergePatch applies the field-level override-with-fallback rule.
func mergePatch(job Job, patch JobPatch) Job {
	if patch.Name != nil {
		job.Name = *patch.Name
	}
	if patch.Description != nil {
		job.Description = *patch.Description
	}
	if patch.Enabled != nil {
		job.Enabled = *patch.Enabled
	}
	if patch.AgentID != nil {
		job.AgentID = *patch.AgentID
	}
	if patch.SessionTarget != nil {
		job.SessionTarget = *patch.SessionTarget
	}
	if patch.WakeMode != nil {
		job.WakeMode = *patch.WakeMode
	}
	if patch.Schedule != nil {
		job.Schedule = *patch.Schedule
	}
	if patch.Payload != nil {
		job.Payload = *patch.Payload
	}
	if patch.Delivery != nil {
		job.Delivery = patch.Delivery
	}

	// The stored payload kind follows the effective session target even if
	// the patch supplied a contradictory kind, or no payload at all.
	payload := job.Payload
	job.Payload = derivePayload(job.SessionTarget, &payload)
	return job
}

func indexOf(jobs []Job, id string) int {
	for i, job := range jobs {
		if job.ID == id {
			return i
		}
	}
	return -1
}

// load reads the whole collection. A missing file is an empty version-1
// collection, not an error.
func (s *Store) load(op string) (Collection, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Collection{Version: CollectionVersion, Jobs: []Job{}}, nil
		}
		s.logger.Error("failed to read jobs file", err,
			logger.Field{Key: "file", Value: s.path})
		return Collection{}, newStorageError(op, s.path, err)
	}

	var data Collection
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Error("failed to parse jobs file", err,
			logger.Field{Key: "file", Value: s.path})
		return Collection{}, newStorageError(op, s.path, err)
	}

	if data.Version == 0 {
		data.Version = CollectionVersion
	}
	if data.Jobs == nil {
		data.Jobs = []Job{}
	}
	return data, nil
}

// save writes the whole collection to a temporary file, syncs it, and
// atomically renames it over the jobs document. A failed write never leaves
// a partially written file behind the real path.
func (s *Store) save(op string, data Collection) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		s.logger.Error("failed to create cron directory", err,
			logger.Field{Key: "dir", Value: filepath.Dir(s.path)})
		return newStorageError(op, s.path, err)
	}

	serialized, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return newStorageError(op, s.path, err)
	}
	serialized = append(serialized, '\n')

	tmpPath := s.path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		s.logger.Error("failed to create temporary jobs file", err,
			logger.Field{Key: "file", Value: tmpPath})
		return newStorageError(op, tmpPath, err)
	}

	if _, err := file.Write(serialized); err != nil {
		file.Close()
		s.logger.Error("failed to write temporary jobs file", err,
			logger.Field{Key: "file", Value: tmpPath})
		return newStorageError(op, tmpPath, err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		s.logger.Error("failed to sync temporary jobs file", err,
			logger.Field{Key: "file", Value: tmpPath})
		return newStorageError(op, tmpPath, err)
	}

	if err := file.Close(); err != nil {
		return newStorageError(op, tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		s.logger.Error("failed to rename temporary jobs file", err,
			logger.Field{Key: "from", Value: tmpPath},
			logger.Field{Key: "to", Value: s.path})
		return newStorageError(op, s.path, err)
	}

	s.logger.Debug("jobs saved",
		logger.Field{Key: "count", Value: len(data.Jobs)},
		logger.Field{Key: "file", Value: s.path})
	return nil
}
