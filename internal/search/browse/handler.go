package browse

import (
	"errors"
	"net/http"
	"strconv"

	"leadscout_backend/internal/leads/domain"
	"leadscout_backend/platform/httpkit"
	"leadscout_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	manager *Manager
	val     *validator.Validator
}

func NewHandler(manager *Manager, val *validator.Validator) *Handler {
	return &Handler{manager: manager, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/browse/search", h.Search)
	rg.POST("/browse/pages/:page", h.GoToPage)
	rg.POST("/browse/complete", h.Complete)
	rg.GET("/browse/leads", h.VisibleLeads)
	rg.DELETE("/browse/leads/:id", h.DeleteLead)
	rg.POST("/browse/selection/:id", h.ToggleSelect)
	rg.GET("/browse/selection", h.Selection)
}

type browseSearchRequest struct {
	Query    string `json:"query" validate:"required,max=200"`
	Location string `json:"location" validate:"required,max=200"`
}

type outcomeResponse struct {
	QuotaDenied bool          `json:"quotaDenied"`
	Page        int           `json:"page"`
	Leads       []domain.Lead `json:"leads"`
	HasMore     bool          `json:"hasMore"`
}

type selectionResponse struct {
	Leads []domain.Lead `json:"leads"`
	Count int           `json:"count"`
}

func (h *Handler) Search(c *gin.Context) {
	var req browseSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	browser, ok := h.browser(c)
	if !ok {
		return
	}

	outcome, err := browser.Search(c.Request.Context(), req.Query, req.Location)
	if h.handleBrowseError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(outcome))
}

func (h *Handler) GoToPage(c *gin.Context) {
	browser, ok := h.browser(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid page", nil)
		return
	}

	outcome, err := browser.GoToPage(c.Request.Context(), page)
	if h.handleBrowseError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(outcome))
}

func (h *Handler) Complete(c *gin.Context) {
	browser, ok := h.browser(c)
	if !ok {
		return
	}
	if err := browser.Complete(c.Request.Context()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"completed": true})
}

func (h *Handler) VisibleLeads(c *gin.Context) {
	browser, ok := h.browser(c)
	if !ok {
		return
	}
	leads := browser.VisibleLeads()
	httpkit.OK(c, outcomeResponse{Page: browser.CurrentPage(), Leads: leads, HasMore: browser.HasMore()})
}

func (h *Handler) DeleteLead(c *gin.Context) {
	browser, ok := h.browser(c)
	if !ok {
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	if err := browser.DeleteLead(c.Request.Context(), leadID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

func (h *Handler) ToggleSelect(c *gin.Context) {
	browser, ok := h.browser(c)
	if !ok {
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	selected, err := browser.ToggleSelect(leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"selected": selected})
}

func (h *Handler) Selection(c *gin.Context) {
	browser, ok := h.browser(c)
	if !ok {
		return
	}
	leads := browser.Selection()
	httpkit.OK(c, selectionResponse{Leads: leads, Count: len(leads)})
}

func (h *Handler) browser(c *gin.Context) (*Browser, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return nil, false
	}
	companyID := identity.CompanyID()
	if companyID == uuid.Nil {
		httpkit.Error(c, http.StatusForbidden, "company scope required", nil)
		return nil, false
	}
	return h.manager.ForUser(companyID, identity.UserID()), true
}

// handleBrowseError maps ErrBusy to 409 with a stable message; everything
// else goes through the standard mapping.
func (h *Handler) handleBrowseError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBusy) {
		httpkit.Error(c, http.StatusConflict, "busy", nil)
		return true
	}
	return httpkit.HandleError(c, err)
}

func toResponse(outcome *Outcome) outcomeResponse {
	leads := outcome.Leads
	if leads == nil {
		leads = []domain.Lead{}
	}
	return outcomeResponse{
		QuotaDenied: outcome.QuotaDenied,
		Page:        outcome.Page,
		Leads:       leads,
		HasMore:     outcome.HasMore,
	}
}
