package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
	"github.com/oksasatya/doitnow-api/internal/domain/repository"
)

type taskRecord struct {
	task entity.Task
	seq  int
}

type TaskRepository struct {
	s *Store
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

func cloneTask(t entity.Task) *entity.Task {
	t.AssignedUsers = append([]string(nil), t.AssignedUsers...)
	if t.ProofRef != nil {
		v := *t.ProofRef
		t.ProofRef = &v
	}
	if t.Notes != nil {
		v := *t.Notes
		t.Notes = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		t.CompletedAt = &v
	}
	return &t
}

func (r *TaskRepository) Create(_ context.Context, t *entity.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[t.OwnerID]; !ok {
		return repository.ErrNotFound
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC()
	r.s.tasks[t.ID] = &taskRecord{task: *cloneTask(*t), seq: len(r.s.tasks)}
	return nil
}

func (r *TaskRepository) GetByID(_ context.Context, id string) (*entity.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTask(rec.task), nil
}

func (r *TaskRepository) ListByOwner(_ context.Context, ownerID string) ([]entity.Task, error) {
	r.s.mu.RLock()
	recs := make([]*taskRecord, 0)
	for _, rec := range r.s.tasks {
		if rec.task.OwnerID == ownerID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	out := make([]entity.Task, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *cloneTask(rec.task))
	}
	r.s.mu.RUnlock()
	return out, nil
}

func (r *TaskRepository) SumCompletedPoints(_ context.Context, ownerID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var sum int64
	for _, rec := range r.s.tasks {
		if rec.task.OwnerID == ownerID && rec.task.Completed {
			sum += rec.task.Points
		}
	}
	return sum, nil
}

func (r *TaskRepository) MarkCompleted(_ context.Context, id string, c entity.Completion) (*entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if rec.task.Completed {
		return nil, repository.ErrAlreadyCompleted
	}
	proof, notes, at := c.ProofRef, c.Notes, c.CompletedAt
	rec.task.Completed = true
	rec.task.ProofRef = &proof
	rec.task.Notes = &notes
	rec.task.Points = c.Points
	rec.task.CompletedAt = &at
	return cloneTask(rec.task), nil
}
