// Package transport defines request and response shapes for the search module.
package transport

import (
	"time"

	"leadscout_backend/internal/leads/domain"
)

// Search actions accepted by POST /search.
const (
	ActionCreate    = "create"
	ActionFetchMore = "fetch_more"
	ActionComplete  = "complete"
)

type SearchRequest struct {
	Action    string `json:"action" validate:"required,oneof=create fetch_more complete"`
	Query     string `json:"query" validate:"omitempty,max=200"`
	Location  string `json:"location" validate:"omitempty,max=200"`
	SessionID string `json:"sessionId" validate:"omitempty,uuid"`
	CompanyID string `json:"companyId" validate:"omitempty,uuid"`
}

type SessionResponse struct {
	SessionID   string        `json:"sessionId"`
	Query       string        `json:"query"`
	Location    string        `json:"location"`
	CurrentPage int           `json:"currentPage"`
	Status      string        `json:"status"`
	Leads       []domain.Lead `json:"leads"`
	HasMore     bool          `json:"hasMore"`
	Inserted    int           `json:"inserted"`
}

type CompleteResponse struct {
	SessionID   string     `json:"sessionId"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type LegacySearchRequest struct {
	Query     string `json:"query" validate:"required,max=200"`
	Location  string `json:"location" validate:"required,max=200"`
	Start     int    `json:"start" validate:"omitempty,min=0"`
	HistoryID string `json:"historyId" validate:"omitempty,uuid"`
}

// LegacySearchResponse mirrors the original v1 contract.
type LegacySearchResponse struct {
	Success   bool          `json:"success"`
	Count     int           `json:"count"`
	HasMore   bool          `json:"hasMore"`
	NextStart int           `json:"nextStart"`
	HistoryID string        `json:"historyId"`
	Leads     []domain.Lead `json:"leads"`
}

type HistoryItem struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	Location     string    `json:"location"`
	ResultsCount int       `json:"resultsCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

type HistoryResponse struct {
	Items []HistoryItem `json:"items"`
}

type LeadsResponse struct {
	Leads []domain.Lead `json:"leads"`
	Total int           `json:"total"`
}

type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}
