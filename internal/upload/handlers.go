package upload

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/printhaus/storefront-api/internal/common"
)

// Enqueuer is the slice of asynq.Client the handler needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// SessionMarker flags a selection session once its artwork is accepted.
type SessionMarker interface {
	MarkArtworkUploaded(id uuid.UUID) error
}

// Handler accepts artwork uploads and hands them to the forwarding queue.
type Handler struct {
	enqueuer Enqueuer
	sessions SessionMarker
	validate *validator.Validate
	maxBytes int64
	logger   zerolog.Logger
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Enqueuer Enqueuer
	Sessions SessionMarker
	Validate *validator.Validate
	MaxBytes int64
	Logger   zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Handler{
		enqueuer: cfg.Enqueuer,
		sessions: cfg.Sessions,
		validate: cfg.Validate,
		maxBytes: maxBytes,
		logger:   cfg.Logger,
	}
}

type uploadRequest struct {
	SessionID   string `json:"sessionId" validate:"omitempty,uuid4_rfc4122|uuid_rfc4122"`
	ProductID   string `json:"productId" validate:"required,uuid4_rfc4122|uuid_rfc4122"`
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=127"`
	Data        string `json:"data" validate:"required"`
}

// Upload handles POST /api/v1/uploads. The file arrives base64-encoded in the
// JSON body; the handler validates and enqueues, the worker does the slow
// handoff to the collaborator. Acceptance here means "queued", hence 202.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "upload queue not configured", nil)
		return
	}
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "productId, filename, contentType, and data are required", nil)
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "productId must be a valid id", nil)
		return
	}
	var sessionID uuid.UUID
	if req.SessionID != "" {
		sessionID, err = uuid.Parse(req.SessionID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "sessionId must be a valid id", nil)
			return
		}
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "data must be base64-encoded", nil)
		return
	}
	if int64(len(data)) > h.maxBytes {
		common.JSONError(w, http.StatusRequestEntityTooLarge, common.CodePayloadTooLarge, "file exceeds the upload size limit", nil)
		return
	}

	task, err := NewForwardTask(ForwardPayload{
		SessionID:   sessionID,
		ProductID:   productID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Data:        data,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "could not prepare upload", nil)
		return
	}
	info, err := h.enqueuer.EnqueueContext(r.Context(), task)
	if err != nil {
		h.logger.Error().Err(err).Str("product_id", productID.String()).Msg("upload_enqueue_failed")
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "could not accept upload", nil)
		return
	}

	if sessionID != uuid.Nil && h.sessions != nil {
		if err := h.sessions.MarkArtworkUploaded(sessionID); err != nil {
			// The file is queued regardless; an expired session only loses
			// the checkmark in the UI.
			h.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("upload_session_mark_failed")
		}
	}

	common.JSON(w, http.StatusAccepted, map[string]any{
		"data": map[string]any{
			"taskId":   info.ID,
			"queue":    info.Queue,
			"filename": req.Filename,
		},
	})
}
