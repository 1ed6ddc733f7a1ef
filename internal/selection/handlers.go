package selection

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/printhaus/storefront-api/internal/common"
)

// Handler exposes selection session endpoints.
type Handler struct {
	manager  *Manager
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Manager  *Manager
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{manager: cfg.Manager, validate: cfg.Validate}
}

type createSessionRequest struct {
	ProductID string `json:"productId" validate:"required,uuid4_rfc4122|uuid_rfc4122"`
	RegionID  string `json:"regionId" validate:"required,uuid4_rfc4122|uuid_rfc4122"`
}

type setOptionRequest struct {
	Value string `json:"value" validate:"required,max=255"`
}

type setDimensionsRequest struct {
	WidthCm  float64 `json:"widthCm" validate:"gte=0,lte=10000"`
	HeightCm float64 `json:"heightCm" validate:"gte=0,lte=10000"`
}

// Create handles POST /api/v1/sessions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "selection manager not configured", nil)
		return
	}
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "productId and regionId are required", nil)
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "productId must be a valid id", nil)
		return
	}
	regionID, err := uuid.Parse(req.RegionID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "regionId must be a valid id", nil)
		return
	}
	snap, err := h.manager.Create(r.Context(), productID, regionID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": snap})
}

// Get handles GET /api/v1/sessions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.manager.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

// SetOption handles PUT /api/v1/sessions/{id}/options/{optionID}.
func (h *Handler) SetOption(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	optionID, err := uuid.Parse(chi.URLParam(r, "optionID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "option id must be a valid id", nil)
		return
	}
	var req setOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "value is required", nil)
		return
	}
	snap, err := h.manager.SetOption(id, optionID, req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

// SetDimensions handles PUT /api/v1/sessions/{id}/dimensions.
func (h *Handler) SetDimensions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req setDimensionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "dimensions must be between 0 and 10000", nil)
		return
	}
	snap, err := h.manager.SetDimensions(id, req.WidthCm, req.HeightCm)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if h.manager == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "selection manager not configured", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "session id must be a valid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = common.CodeInternal
		}
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		common.JSONError(w, status, code, message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "internal error", nil)
}
