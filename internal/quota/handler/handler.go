// Package handler exposes quota inspection and gating over HTTP.
package handler

import (
	"net/http"
	"time"

	"leadscout_backend/internal/quota/service"
	"leadscout_backend/platform/httpkit"
	"leadscout_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	gate *service.Gate
	val  *validator.Validator
}

func New(gate *service.Gate, val *validator.Validator) *Handler {
	return &Handler{gate: gate, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/quotas/me", h.Me)
	rg.POST("/quotas/check", h.Check)
	rg.POST("/quotas/increment", h.Increment)
}

type quotaResponse struct {
	PlanType       string    `json:"planType"`
	LeadsLimit     int       `json:"leadsLimit"`
	LeadsUsed      int       `json:"leadsUsed"`
	CampaignsLimit int       `json:"campaignsLimit"`
	CampaignsUsed  int       `json:"campaignsUsed"`
	MessagesLimit  int       `json:"messagesLimit"`
	MessagesSent   int       `json:"messagesSent"`
	ResetDate      time.Time `json:"resetDate"`
}

type checkRequest struct {
	Action string `json:"action" validate:"required,oneof=leads campaigns messages"`
}

type incrementRequest struct {
	Action string `json:"action" validate:"required,oneof=leads campaigns messages"`
	Amount int    `json:"amount" validate:"required,min=1,max=10000"`
}

func (h *Handler) Me(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	quota, err := h.gate.Current(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, quotaResponse{
		PlanType:       quota.PlanType,
		LeadsLimit:     quota.LeadsLimit,
		LeadsUsed:      quota.LeadsUsed,
		CampaignsLimit: quota.CampaignsLimit,
		CampaignsUsed:  quota.CampaignsUsed,
		MessagesLimit:  quota.MessagesLimit,
		MessagesSent:   quota.MessagesSent,
		ResetDate:      quota.ResetDate,
	})
}

func (h *Handler) Check(c *gin.Context) {
	var req checkRequest
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

	decision, err := h.gate.Check(c.Request.Context(), identity.UserID(), req.Action)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, decision)
}

func (h *Handler) Increment(c *gin.Context) {
	var req incrementRequest
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

	h.gate.Increment(c.Request.Context(), identity.UserID(), req.Action, req.Amount)
	httpkit.OK(c, gin.H{"recorded": true})
}
