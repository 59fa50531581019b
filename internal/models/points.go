package models

import (
	"strings"
	"time"
)

// TransactionType enumerates points ledger entry kinds.
type TransactionType string

const (
	TransactionEarned    TransactionType = "EARNED"
	TransactionDeducted  TransactionType = "DEDUCTED"
	TransactionBonus     TransactionType = "BONUS"
	TransactionMilestone TransactionType = "MILESTONE"
)

// PointsTransaction is an immutable, append-only points ledger entry. Points
// are signed; the company balance is the sum over all rows.
type PointsTransaction struct {
	ID          string          `db:"id" json:"id"`
	CompanyID   string          `db:"company_id" json:"-"`
	Points      int             `db:"points" json:"points"`
	Type        TransactionType `db:"type" json:"type"`
	Description *string         `db:"description" json:"description,omitempty"`
	Reason      *string         `db:"reason" json:"reason,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Activity returns a human-readable label for the transaction, preferring the
// description, then the reason, then the type.
func (t PointsTransaction) Activity() string {
	if t.Description != nil && *t.Description != "" {
		return *t.Description
	}
	if t.Reason != nil && *t.Reason != "" {
		return *t.Reason
	}
	return strings.ReplaceAll(string(t.Type), "_", " ")
}
