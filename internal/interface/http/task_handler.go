package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/doitnow-api/internal/application"
	"github.com/oksasatya/doitnow-api/internal/domain/entity"
	"github.com/oksasatya/doitnow-api/internal/interface/middleware"
	"github.com/oksasatya/doitnow-api/pkg/response"
	"github.com/oksasatya/doitnow-api/pkg/validation"
)

// TaskHandler serves task listing, creation, search and completion.
type TaskHandler struct {
	Svc            *application.TaskService
	Logger         *logrus.Logger
	MaxUploadBytes int64
}

func NewTaskHandler(svc *application.TaskService, logger *logrus.Logger, maxUploadBytes int64) *TaskHandler {
	return &TaskHandler{Svc: svc, Logger: logger, MaxUploadBytes: maxUploadBytes}
}

type createTaskRequest struct {
	Name          string   `json:"name" binding:"required,max=200"`
	DueDate       string   `json:"due_date" binding:"required"`
	Collaborative bool     `json:"collaborative"`
	AssignedUsers []string `json:"assigned_users" binding:"max=50"`
	Priority      string   `json:"priority" binding:"omitempty,priority"`
}

type taskView struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner_id"`
	Name          string     `json:"name"`
	DueDate       time.Time  `json:"due_date"`
	Completed     bool       `json:"completed"`
	Points        int64      `json:"points"`
	Collaborative bool       `json:"collaborative"`
	AssignedUsers []string   `json:"assigned_users"`
	Priority      string     `json:"priority"`
	ProofRef      *string    `json:"proof_ref"`
	Notes         *string    `json:"notes"`
	CompletedAt   *time.Time `json:"completed_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toTaskView(t *entity.Task) taskView {
	assigned := t.AssignedUsers
	if assigned == nil {
		assigned = []string{}
	}
	return taskView{
		ID:            t.ID,
		OwnerID:       t.OwnerID,
		Name:          t.Name,
		DueDate:       t.DueDate,
		Completed:     t.Completed,
		Points:        t.Points,
		Collaborative: t.Collaborative,
		AssignedUsers: assigned,
		Priority:      string(t.Priority),
		ProofRef:      t.ProofRef,
		Notes:         t.Notes,
		CompletedAt:   t.CompletedAt,
		CreatedAt:     t.CreatedAt,
	}
}

// parseDueDate accepts RFC 3339 timestamps and plain dates.
func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("due_date must be RFC 3339 or YYYY-MM-DD")
}

func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.Svc.ListTasks(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	out := make([]taskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, toTaskView(&tasks[i]))
	}
	response.Success(c, http.StatusOK, out, "tasks fetched", gin.H{"count": len(out)})
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"due_date": err.Error()})
		return
	}
	t, err := h.Svc.CreateTask(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), application.CreateTaskInput{
		Name:          req.Name,
		DueDate:       due,
		Collaborative: req.Collaborative,
		AssignedUsers: req.AssignedUsers,
		Priority:      req.Priority,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toTaskView(t), "task created", nil)
}

func (h *TaskHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchTasks(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), q, size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

// Complete accepts multipart form data with an "image" file and "notes".
func (h *TaskHandler) Complete(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
	var up *application.ProofUpload
	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		f, openErr := fh.Open()
		if openErr != nil {
			writeError(c, h.Logger, openErr)
			return
		}
		defer func() { _ = f.Close() }()
		ct := fh.Header.Get("Content-Type")
		if ct == "" || ct == "application/octet-stream" {
			if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename))); byExt != "" {
				ct = byExt
			}
		}
		up = &application.ProofUpload{Filename: fh.Filename, ContentType: ct, Size: fh.Size, Body: f}
	case isTooLarge(err):
		response.Error[any](c, http.StatusRequestEntityTooLarge, "upload too large", nil)
		return
	}

	notes := c.PostForm("notes")

	t, err := h.Svc.CompleteWithProof(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), c.Param("id"), up, notes)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toTaskView(t), "task completed", nil)
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
