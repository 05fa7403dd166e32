package application

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
	repo "github.com/oksasatya/doitnow-api/internal/domain/repository"
)

var tasksCompleted = expvar.NewInt("tasks_completed_total")

type TaskService struct {
	Tasks  repo.TaskRepository
	Proofs ProofStore
	Index  TaskIndex
	Logger *logrus.Logger
	Now    func() time.Time
}

func NewTaskService(tasks repo.TaskRepository, proofs ProofStore, index TaskIndex, logger *logrus.Logger) *TaskService {
	return &TaskService{
		Tasks:  tasks,
		Proofs: proofs,
		Index:  index,
		Logger: logger,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

type CreateTaskInput struct {
	Name          string
	DueDate       time.Time
	Collaborative bool
	AssignedUsers []string
	Priority      string
}

// ProofUpload is an uploaded completion artifact.
type ProofUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s *TaskService) CreateTask(ctx context.Context, ownerID string, in CreateTaskInput) (*entity.Task, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	if in.DueDate.IsZero() {
		return nil, fmt.Errorf("due date is required: %w", ErrInvalidInput)
	}
	t := &entity.Task{
		OwnerID:       ownerID,
		Name:          name,
		DueDate:       in.DueDate,
		Collaborative: in.Collaborative,
		AssignedUsers: []string{},
		Priority:      entity.ParsePriority(in.Priority),
	}
	if in.Collaborative {
		t.AssignedUsers = dedupe(in.AssignedUsers)
	}
	if err := s.Tasks.Create(ctx, t); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("owner %s: %w", ownerID, ErrNotFound)
		}
		return nil, s.internal(err, logrus.Fields{"user_id": ownerID}, "create task failed")
	}
	s.index(ctx, t)
	return t, nil
}

func (s *TaskService) ListTasks(ctx context.Context, ownerID string) ([]entity.Task, error) {
	tasks, err := s.Tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.internal(err, logrus.Fields{"user_id": ownerID}, "list tasks failed")
	}
	return tasks, nil
}

// CompleteTask marks the task completed with its evidence and awards the
// points of its priority tier. A task completes at most once.
func (s *TaskService) CompleteTask(ctx context.Context, callerID, taskID, proofRef, notes string) (*entity.Task, error) {
	if err := validateEvidence(proofRef != "", notes); err != nil {
		return nil, err
	}
	t, err := s.loadForCompletion(ctx, callerID, taskID)
	if err != nil {
		return nil, err
	}

	c := entity.Completion{
		ProofRef:    proofRef,
		Notes:       strings.TrimSpace(notes),
		Points:      entity.PointsFor(t.Priority),
		CompletedAt: s.Now(),
	}
	done, err := s.Tasks.MarkCompleted(ctx, taskID, c)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrAlreadyCompleted):
			return nil, fmt.Errorf("task %s: %w", taskID, ErrAlreadyCompleted)
		case errors.Is(err, repo.ErrNotFound):
			return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		default:
			return nil, s.internal(err, logrus.Fields{"task_id": taskID}, "mark task completed failed")
		}
	}
	tasksCompleted.Add(1)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"task_id": taskID,
			"user_id": callerID,
			"points":  done.Points,
		}).Info("task completed")
	}
	s.index(ctx, done)
	return done, nil
}

// CompleteWithProof checks the evidence, stores the artifact and then
// completes the task with the stored reference.
func (s *TaskService) CompleteWithProof(ctx context.Context, callerID, taskID string, up *ProofUpload, notes string) (*entity.Task, error) {
	if err := validateEvidence(up != nil && up.Body != nil, notes); err != nil {
		return nil, err
	}
	t, err := s.loadForCompletion(ctx, callerID, taskID)
	if err != nil {
		return nil, err
	}
	if t.Completed {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrAlreadyCompleted)
	}
	if s.Proofs == nil {
		return nil, s.internal(errors.New("proof store not configured"), logrus.Fields{"task_id": taskID}, "store proof failed")
	}
	key := ProofKey(t.OwnerID, t.ID, up.Filename)
	ref, err := s.Proofs.Put(ctx, key, up.ContentType, up.Body, up.Size)
	if err != nil {
		return nil, s.internal(err, logrus.Fields{"task_id": taskID, "key": key}, "store proof failed")
	}
	done, err := s.CompleteTask(ctx, callerID, taskID, ref, notes)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"task_id": taskID, "proof_ref": ref}).Warn("stored proof left unreferenced")
		}
		return nil, err
	}
	return done, nil
}

func (s *TaskService) SearchTasks(ctx context.Context, ownerID, q string, size int) ([]TaskHit, error) {
	if s.Index == nil {
		return []TaskHit{}, nil
	}
	hits, err := s.Index.Search(ctx, ownerID, q, size)
	if err != nil {
		return nil, s.internal(err, logrus.Fields{"user_id": ownerID}, "search tasks failed")
	}
	return hits, nil
}

// ProofKey builds the object key for a proof artifact:
// proofs/<owner>/<task>/<slugged-name>-<uuid><ext>.
func ProofKey(ownerID, taskID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "." {
		ext = ""
	}
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "proof"
	}
	return "proofs/" + ownerID + "/" + taskID + "/" + base + "-" + uuid.NewString() + ext
}

func validateEvidence(hasProof bool, notes string) error {
	if !hasProof || strings.TrimSpace(notes) == "" {
		return fmt.Errorf("proof image and notes are both required: %w", ErrInvalidInput)
	}
	return nil
}

func (s *TaskService) loadForCompletion(ctx context.Context, callerID, taskID string) (*entity.Task, error) {
	t, err := s.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		return nil, s.internal(err, logrus.Fields{"task_id": taskID}, "load task failed")
	}
	if !t.CanComplete(callerID) {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return t, nil
}

func (s *TaskService) index(ctx context.Context, t *entity.Task) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, t); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("task_id", t.ID).Warn("task index failed")
	}
}

func (s *TaskService) internal(err error, fields logrus.Fields, msg string) error {
	if s.Logger != nil {
		s.Logger.WithError(err).WithFields(fields).Error(msg)
	}
	return fmt.Errorf("%s: %w", msg, ErrInternal)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
