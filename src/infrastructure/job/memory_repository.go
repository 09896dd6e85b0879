package job

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryJobRepository keeps jobs in process memory. It serves single-process
// setups that run the worker next to the HTTP server.
type MemoryJobRepository struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]*Job
}

func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[int]*Job)}
}

func (r *MemoryJobRepository) Create(_ context.Context, taskType string, payload json.RawMessage) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now()
	job := &Job{
		ID:        r.nextID,
		TaskType:  taskType,
		Payload:   payload,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.jobs[job.ID] = job

	copied := *job
	return &copied, nil
}

func (r *MemoryJobRepository) Get(_ context.Context, id int) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (r *MemoryJobRepository) UpdateStatus(_ context.Context, id int, status JobStatus, err *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = status
	job.Error = err
	job.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryJobRepository) SaveResult(_ context.Context, id int, result json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Result = result
	job.UpdatedAt = time.Now()
	return nil
}
