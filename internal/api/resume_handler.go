package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"resumehub/internal/api/middleware"
	"resumehub/internal/database"
	"resumehub/internal/resume"
)

// ResumeHandler serves the authenticated resume CRUD plus history.
type ResumeHandler struct {
	store  *resume.Store
	logger *slog.Logger
}

// NewResumeHandler constructs the handler.
func NewResumeHandler(store *resume.Store, logger *slog.Logger) *ResumeHandler {
	return &ResumeHandler{store: store, logger: logger}
}

type createResumeRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type updateResumeRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type listQuery struct {
	Page    int    `form:"page,default=1"`
	PerPage int    `form:"per_page,default=10"`
	Query   string `form:"q"`
}

type resumeResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type revisionResponse struct {
	ID        uint      `json:"id"`
	ResumeID  uint      `json:"resume_id"`
	Version   int       `json:"version"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func newResumeResponse(r database.Resume) resumeResponse {
	return resumeResponse{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func newRevisionResponse(rev database.ResumeRevision) revisionResponse {
	return revisionResponse{
		ID:        rev.ID,
		ResumeID:  rev.ResumeID,
		Version:   rev.Version,
		Content:   rev.Content,
		CreatedAt: rev.CreatedAt,
	}
}

// Create stores a new resume for the caller at version 1.
func (h *ResumeHandler) Create(c *gin.Context) {
	var req createResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	owner, ok := middleware.CurrentUser(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	r, err := h.store.Create(c.Request.Context(), owner, req.Title, req.Content)
	if err != nil {
		h.loggerFromContext(c).Error("create resume failed", slog.Any("error", err))
		Internal(c, "failed to create resume")
		return
	}

	h.loggerFromContext(c).Info("resume created",
		slog.Uint64("resume_id", uint64(r.ID)),
		slog.Uint64("user_id", uint64(owner.ID)),
	)
	c.JSON(http.StatusCreated, newResumeResponse(*r))
}

// List returns one page of the caller's resumes with optional title search.
func (h *ResumeHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, err.Error())
		return
	}

	owner, ok := middleware.CurrentUser(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	page, err := h.store.List(c.Request.Context(), owner, q.Query, q.Page, q.PerPage)
	if err != nil {
		h.loggerFromContext(c).Error("list resumes failed", slog.Any("error", err))
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]resumeResponse, 0, len(page.Items))
	for _, r := range page.Items {
		items = append(items, newResumeResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "meta": page.Meta})
}

// Get returns a single resume by id.
func (h *ResumeHandler) Get(c *gin.Context) {
	owner, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	r, err := h.store.Get(c.Request.Context(), owner, id)
	if err != nil {
		h.replyStoreError(c, err, "failed to load resume")
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*r))
}

// Update patches title and/or content, snapshotting the prior state.
func (h *ResumeHandler) Update(c *gin.Context) {
	var req updateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	owner, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	r, err := h.store.Update(c.Request.Context(), owner, id, resume.Patch{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		h.replyStoreError(c, err, "failed to update resume")
		return
	}

	h.loggerFromContext(c).Info("resume updated",
		slog.Uint64("resume_id", uint64(r.ID)),
		slog.Int("version", r.Version),
	)
	c.JSON(http.StatusOK, newResumeResponse(*r))
}

// Improve applies the fixed content transformation, snapshotting the prior
// state like any other mutation.
func (h *ResumeHandler) Improve(c *gin.Context) {
	owner, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	r, err := h.store.Improve(c.Request.Context(), owner, id)
	if err != nil {
		h.replyStoreError(c, err, "failed to improve resume")
		return
	}

	h.loggerFromContext(c).Info("resume improved",
		slog.Uint64("resume_id", uint64(r.ID)),
		slog.Int("version", r.Version),
	)
	c.JSON(http.StatusOK, newResumeResponse(*r))
}

// Delete removes the resume and its whole history.
func (h *ResumeHandler) Delete(c *gin.Context) {
	owner, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), owner, id); err != nil {
		h.replyStoreError(c, err, "failed to delete resume")
		return
	}

	h.loggerFromContext(c).Info("resume deleted", slog.Uint64("resume_id", uint64(id)))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// History returns one page of the resume's revisions, newest version first.
func (h *ResumeHandler) History(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, err.Error())
		return
	}

	owner, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	page, err := h.store.ListHistory(c.Request.Context(), owner, id, q.Page, q.PerPage)
	if err != nil {
		h.replyStoreError(c, err, "failed to load history")
		return
	}

	items := make([]revisionResponse, 0, len(page.Items))
	for _, rev := range page.Items {
		items = append(items, newRevisionResponse(rev))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "meta": page.Meta})
}

// ownerAndID pulls the authenticated user and the :id path param. A
// non-numeric id is answered like a missing resume so malformed probes learn
// nothing.
func (h *ResumeHandler) ownerAndID(c *gin.Context) (*database.User, uint, bool) {
	owner, ok := middleware.CurrentUser(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, 0, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		NotFound(c, "resume not found")
		return nil, 0, false
	}

	return owner, uint(id), true
}

func (h *ResumeHandler) replyStoreError(c *gin.Context, err error, msg string) {
	if errors.Is(err, resume.ErrNotFound) {
		NotFound(c, "resume not found")
		return
	}
	h.loggerFromContext(c).Error(msg, slog.Any("error", err))
	Internal(c, msg)
}

func (h *ResumeHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
