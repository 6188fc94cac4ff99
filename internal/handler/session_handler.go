package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/proctorhq/examgate-backend/internal/middleware"
	"github.com/proctorhq/examgate-backend/internal/model"
	"github.com/proctorhq/examgate-backend/internal/response"
	"github.com/proctorhq/examgate-backend/internal/scoring"
	"github.com/proctorhq/examgate-backend/internal/service"
	"github.com/proctorhq/examgate-backend/internal/validator"
)

// SessionHandler handles the exam session lifecycle: start, autosave, submit.
type SessionHandler struct {
	sessionService *service.ExamSessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.ExamSessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Start godoc
// POST /api/v1/exams/:exam_id/start
// Idempotent: starting an exam that is already in progress returns the
// existing session.
func (h *SessionHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, session)
}

// Autosave godoc
// PATCH /api/v1/sessions/:session_id
// Partial update of answers, flagged questions, and remaining time. Cheap
// and retry-safe; called on every answer change and flag toggle.
func (h *SessionHandler) Autosave(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AutosaveRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Autosave(c.Request.Context(), sessionID, claims.UserID, &req)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, session)
}

// Submit godoc
// POST /api/v1/sessions/:session_id/submit
// Terminal transition; exactly one submit per session produces a result.
func (h *SessionHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.Submit(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// failSession maps session lifecycle errors to boundary responses. Foreign
// and missing sessions share one answer on purpose.
func (h *SessionHandler) failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyCompleted)
	case errors.Is(err, service.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	case errors.Is(err, scoring.ErrInvalidExam):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidExam)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
