package models

import (
	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/contractledger/internal/domain"
	"github.com/punchamoorthee/contractledger/internal/wealth"
)

// CommandRequest is the payload from the platform adapter.
type CommandRequest struct {
	SenderID string   `json:"sender_id"`
	Command  string   `json:"command"`
	Mentions []string `json:"mentions,omitempty"`
	Args     []string `json:"args,omitempty"`
}

// CommandResponse is the canonical response structure for a dispatched command.
type CommandResponse struct {
	Command     string             `json:"command"`
	TxID        string             `json:"tx_id,omitempty"`
	Message     string             `json:"message"`
	Card        *Card              `json:"card,omitempty"`
	Leaderboard []LeaderboardEntry `json:"leaderboard,omitempty"`
}

// Card is the plain-data snapshot handed to a renderer.
type Card struct {
	UserID          string   `json:"user_id"`
	UserName        string   `json:"user_name"`
	Status          string   `json:"status"`
	Tier            string   `json:"tier"`
	Coins           float64  `json:"coins"`
	Bank            float64  `json:"bank"`
	Consecutive     int      `json:"consecutive"`
	Contractors     []string `json:"contractors"`
	ContractorNames []string `json:"contractor_names"`
	Query           bool     `json:"query"`
	// Set for a claim.
	Reward   float64 `json:"reward,omitempty"`
	Interest float64 `json:"interest,omitempty"`
	// Set for a preview.
	Preview *PreviewBreakdown `json:"preview,omitempty"`
}

// PreviewBreakdown splits the projected income of the next claim.
type PreviewBreakdown struct {
	Base     float64 `json:"base"`
	Contract float64 `json:"contract"`
	Streak   float64 `json:"streak"`
	Interest float64 `json:"interest"`
	Total    float64 `json:"total"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank   int     `json:"rank"`
	UserID string  `json:"user_id"`
	Coins  float64 `json:"coins"`
	Bank   float64 `json:"bank"`
	Total  float64 `json:"total"`
	Tier   string  `json:"tier"`
}

// AccountView is the public shape of one account.
type AccountView struct {
	UserID        string   `json:"user_id"`
	Exists        bool     `json:"exists"`
	Coins         float64  `json:"coins"`
	Bank          float64  `json:"bank"`
	Tier          string   `json:"tier"`
	IncomeRate    float64  `json:"income_rate"`
	Value         float64  `json:"value"`
	PurchaseLevel int      `json:"purchase_level"`
	Contractors   []string `json:"contractors"`
	ContractedBy  string   `json:"contracted_by,omitempty"`
	LastSignDate  string   `json:"last_sign_date,omitempty"`
	Consecutive   int      `json:"consecutive"`
}

// NewAccountView describes a, or a fresh account when a is nil.
func NewAccountView(user string, a *domain.Account, level int, w *wealth.Model) AccountView {
	exists := a != nil
	if a == nil {
		a = domain.NewAccount()
	}
	tier := w.AccountTier(a)
	return AccountView{
		UserID:        user,
		Exists:        exists,
		Coins:         Round(a.Coins),
		Bank:          Round(a.Bank),
		Tier:          tier.Name,
		IncomeRate:    tier.Rate,
		Value:         Round(w.DynamicValue(a, level)),
		PurchaseLevel: level,
		Contractors:   a.Contractors,
		ContractedBy:  a.ContractedBy,
		LastSignDate:  a.LastSignDate.String(),
		Consecutive:   a.Consecutive,
	}
}

// Round keeps one decimal place for display.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
