package leave

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, logger: l}
}

// actorFromContext reads the identity set by the auth middleware.
func actorFromContext(c *gin.Context) Actor {
	return Actor{
		ID:   c.GetString("employee_id"),
		Role: Role(strings.ToUpper(c.GetString("role"))),
	}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	}
	if httpErr.Status >= http.StatusInternalServerError {
		h.logger.Error("leave request failed", append(fields, zap.Error(err))...)
	} else {
		h.logger.Warn("leave request failed", append(fields, zap.String("message", httpErr.Message))...)
	}
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// writeBindError reports the first binding failure; malformed JSON maps to a
// generic validation error.
func (h *Handler) writeBindError(c *gin.Context, err error) {
	h.logger.Warn("leave request validation failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	h.writeServiceError(c, apperror.MapValidationError(err))
}

func (h *Handler) Apply(c *gin.Context) {
	actor := actorFromContext(c)
	h.logger.Debug("http apply leave", zap.String("actor_id", actor.ID))

	var req ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}
	req.EmployeeID = actor.ID
	req.ManagerID = c.GetString("manager_id")

	resp, err := h.service.Apply(c.Request.Context(), actor, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	actor := actorFromContext(c)
	id := c.Param("id")
	h.logger.Debug("http update leave", zap.String("leave_id", id), zap.String("actor_id", actor.ID))

	var req UpdateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

type transitionFunc func(ctx context.Context, actor Actor, id, comment string) (LeaveResponse, error)

func (h *Handler) transition(c *gin.Context, fn transitionFunc) {
	actor := actorFromContext(c)
	id := c.Param("id")
	h.logger.Debug("http transition leave",
		zap.String("leave_id", id),
		zap.String("actor_id", actor.ID),
		zap.String("path", c.FullPath()),
	)

	// an empty body means no comment
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeBindError(c, err)
		return
	}

	resp, err := fn(c.Request.Context(), actor, id, req.Comment)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetByID(c *gin.Context) {
	actor := actorFromContext(c)
	id := c.Param("id")
	h.logger.Debug("http get leave", zap.String("leave_id", id))

	resp, err := h.service.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ListMine(c *gin.Context) {
	actor := actorFromContext(c)
	resp, err := h.service.ListMine(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ListManaged(c *gin.Context) {
	actor := actorFromContext(c)
	resp, err := h.service.ListManaged(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) MineSummary(c *gin.Context) {
	h.summary(c, ScopeMine)
}

func (h *Handler) ManagedSummary(c *gin.Context) {
	h.summary(c, ScopeManaged)
}

func (h *Handler) summary(c *gin.Context, scope SummaryScope) {
	actor := actorFromContext(c)
	counts, err := h.service.Summary(c.Request.Context(), actor, scope)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, counts, nil)
}
