package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docubrain/ragdex/internal/domain"
)

// JobStatus is the lifecycle state of an async ingestion job.
type JobStatus string

// Job status constants.
const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job tracks one background ingestion.
type Job struct {
	ID           string
	UserID       string
	DocumentName string
	Status       JobStatus
	Result       Result
	Error        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Jobs is an in-memory registry of background ingestion jobs.
type Jobs struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobs creates an empty job registry.
func NewJobs() *Jobs {
	return &Jobs{jobs: make(map[string]*Job)}
}

// Get returns a snapshot of the job with the given ID.
func (j *Jobs) Get(id string) (Job, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	job, ok := j.jobs[id]
	if !ok {
		return Job{}, domain.ErrJobNotFound
	}
	return *job, nil
}

func (j *Jobs) create(userID, name string) *Job {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	job := &Job{
		ID:           uuid.NewString(),
		UserID:       userID,
		DocumentName: name,
		Status:       JobPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	j.jobs[job.ID] = job
	return job
}

func (j *Jobs) update(id string, fn func(*Job)) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if job, ok := j.jobs[id]; ok {
		fn(job)
		job.UpdatedAt = time.Now()
	}
}

// EnqueueAdd starts a background ingestion and returns its job ID.
// The caller is acknowledged immediately; the outcome is visible only
// through Job lookups.
func (s *Service) EnqueueAdd(userID, name string, content []byte) string {
	job := s.jobs.create(userID, name)

	go func() {
		// Detached from the request; ingestion outlives the HTTP call.
		ctx := context.Background()

		s.jobs.update(job.ID, func(j *Job) { j.Status = JobRunning })

		result, err := s.AddDocument(ctx, userID, name, content)
		s.jobs.update(job.ID, func(j *Job) {
			j.Result = result
			if err != nil {
				j.Status = JobFailed
				j.Error = err.Error()
				return
			}
			j.Status = JobDone
		})

		if err != nil {
			s.logger.Warn("Background ingestion failed",
				zap.String("job_id", job.ID),
				zap.String("user_id", userID),
				zap.String("document", name),
				zap.Error(err))
		}
	}()

	return job.ID
}

// Job returns the state of a background ingestion job.
func (s *Service) Job(id string) (Job, error) {
	return s.jobs.Get(id)
}
