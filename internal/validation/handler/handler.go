// Package handler exposes capability validation over HTTP.
package handler

import (
	"net/http"

	"leadscout_backend/internal/validation/service"
	"leadscout_backend/platform/httpkit"
	"leadscout_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads/validate", h.Validate)
}

type validateRequest struct {
	LeadIDs []string `json:"leadIds" validate:"required,min=1,max=500,dive,uuid"`
}

type validateResponse struct {
	Updated []service.Delta `json:"updated"`
}

func (h *Handler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	companyID := identity.CompanyID()
	if companyID == uuid.Nil {
		httpkit.Error(c, http.StatusForbidden, "company scope required", nil)
		return
	}

	ids := make([]uuid.UUID, 0, len(req.LeadIDs))
	for _, raw := range req.LeadIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid request", "invalid lead id")
			return
		}
		ids = append(ids, id)
	}

	deltas, err := h.svc.Validate(c.Request.Context(), companyID, ids)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, validateResponse{Updated: deltas})
}
