// Package handler exposes the search module over HTTP.
package handler

import (
	"net/http"

	"leadscout_backend/internal/search/service"
	"leadscout_backend/internal/search/transport"
	"leadscout_backend/platform/httpkit"
	"leadscout_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgCompanyRequired  = "company scope required"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the module's routes. The searchLimit middleware is
// applied only to endpoints that reach the external provider.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, searchLimit gin.HandlerFunc) {
	rg.POST("/search", searchLimit, h.Search)
	rg.POST("/search/legacy", searchLimit, h.LegacySearch)
	rg.GET("/search/history", h.History)
	rg.DELETE("/search/sessions/:id", h.DeleteSession)
	rg.GET("/leads", h.ListLeads)
	rg.DELETE("/leads/:id", h.DeleteLead)
	rg.DELETE("/leads", h.ClearLeads)
}

// Search dispatches on the request action: create opens a session and fetches
// its first page, fetch_more pulls the next page, complete closes the session.
func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity, companyID := h.scopedIdentity(c)
	if identity == nil {
		return
	}

	switch req.Action {
	case transport.ActionCreate:
		targetCompanyID := companyID
		if req.CompanyID != "" {
			parsed, err := uuid.Parse(req.CompanyID)
			if err != nil {
				httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "invalid company id")
				return
			}
			targetCompanyID = parsed
		}

		result, err := h.svc.CreateSession(c.Request.Context(), companyID, targetCompanyID, identity.UserID(), req.Query, req.Location)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, sessionResponse(result))

	case transport.ActionFetchMore:
		sessionID, ok := parseSessionID(c, req.SessionID)
		if !ok {
			return
		}
		result, err := h.svc.ContinueSession(c.Request.Context(), companyID, sessionID)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, sessionResponse(result))

	case transport.ActionComplete:
		sessionID, ok := parseSessionID(c, req.SessionID)
		if !ok {
			return
		}
		session, err := h.svc.CompleteSession(c.Request.Context(), companyID, sessionID)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, transport.CompleteResponse{
			SessionID:   session.ID.String(),
			Status:      session.Status,
			CompletedAt: session.CompletedAt,
		})

	default:
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "unknown action")
	}
}

func (h *Handler) LegacySearch(c *gin.Context) {
	var req transport.LegacySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity, companyID := h.scopedIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.LegacySearch(c.Request.Context(), companyID, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) History(c *gin.Context) {
	identity, companyID := h.scopedIdentity(c)
	if identity == nil {
		return
	}

	items, err := h.svc.History(c.Request.Context(), companyID)
	if httpkit.HandleError(c, err) {
		return
	}

	response := transport.HistoryResponse{Items: make([]transport.HistoryItem, 0, len(items))}
	for _, item := range items {
		response.Items = append(response.Items, transport.HistoryItem{
			ID:           item.ID.String(),
			Query:        item.Query,
			Location:     item.Location,
			ResultsCount: item.ResultsCount,
			CreatedAt:    item.CreatedAt,
		})
	}
	httpkit.OK(c, response)
}

func (h *Handler) ListLeads(c *gin.Context) {
	identity, companyID := h.scopedIdentity(c)
	if identity == nil {
		return
	}

	leads, err := h.svc.ListLeads(c.Request.Context(), companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadsResponse{Leads: leads, Total: len(leads)})
}

func (h *Handler) DeleteLead(c *gin.Context) {
	identity, companyID := h.scopedIdentity(c)
	if identity == nil {
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "invalid lead id")
		return
	}

	if err := h.svc.DeleteLead(c.Request.Context(), companyID, leadID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.DeleteResponse{Deleted: 1})
}

func (h *Handler) DeleteSession(c *gin.Context) {
	identity, companyID := h.scopedIdentity(c)
	if identity == nil {
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "invalid session id")
		return
	}

	if err := h.svc.DeleteSession(c.Request.Context(), companyID, sessionID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.DeleteResponse{Deleted: 1})
}

func (h *Handler) ClearLeads(c *gin.Context) {
	identity, companyID := h.scopedIdentity(c)
	if identity == nil {
		return
	}

	deleted, err := h.svc.ClearLeads(c.Request.Context(), companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.DeleteResponse{Deleted: deleted})
}

func parseSessionID(c *gin.Context, raw string) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "invalid session id")
		return uuid.Nil, false
	}
	return sessionID, true
}

func (h *Handler) scopedIdentity(c *gin.Context) (httpkit.Identity, uuid.UUID) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return nil, uuid.Nil
	}
	companyID := identity.CompanyID()
	if companyID == uuid.Nil {
		httpkit.Error(c, http.StatusForbidden, msgCompanyRequired, nil)
		return nil, uuid.Nil
	}
	return identity, companyID
}

func sessionResponse(result *service.SessionResult) transport.SessionResponse {
	session := result.Session
	return transport.SessionResponse{
		SessionID:   session.ID.String(),
		Query:       session.Query,
		Location:    session.Location,
		CurrentPage: session.CurrentPage,
		Status:      session.Status,
		Leads:       result.Leads,
		HasMore:     result.HasMore,
		Inserted:    result.Inserted,
	}
}
