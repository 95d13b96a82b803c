// Package domain provides core business rules for the leads bounded context.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a captured business prospect. Leads are scoped to a company and to
// the search session that produced them; the same business found again in a
// later session becomes a distinct row on purpose.
type Lead struct {
	ID              uuid.UUID  `json:"id"`
	CompanyID       uuid.UUID  `json:"companyId"`
	SearchSessionID *uuid.UUID `json:"searchSessionId,omitempty"`
	HistoryID       *uuid.UUID `json:"historyId,omitempty"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone,omitempty"`
	PhoneNormalized string     `json:"phoneNormalized,omitempty"`
	Fingerprint     string     `json:"-"`
	Address         string     `json:"address,omitempty"`
	Category        string     `json:"category,omitempty"`
	Website         string     `json:"website,omitempty"`
	Rating          float64    `json:"rating,omitempty"`
	ReviewsCount    int        `json:"reviewsCount,omitempty"`
	HasWhatsApp     bool       `json:"hasWhatsApp"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// HasPhone reports whether the lead carries a usable phone number.
func (l *Lead) HasPhone() bool {
	return l.PhoneNormalized != "" || l.Phone != ""
}
