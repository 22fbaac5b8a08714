package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Patch types carry only the fields a caller wants to change. Nil fields keep
// the stored value.
type (
	WalletPatch struct {
		Name            *string          `json:"name,omitempty"`
		InitAmount      *decimal.Decimal `json:"init_amount,omitempty"`
		Currency        *string          `json:"currency,omitempty"`
		VisibleCategory *string          `json:"visible_category,omitempty"`
	}

	TransactionPatch struct {
		Type     *TransactionType `json:"type,omitempty"`
		Amount   *decimal.Decimal `json:"amount,omitempty"`
		Currency *string          `json:"currency,omitempty"`
		Date     *time.Time       `json:"date,omitempty"`
		Wallet   *string          `json:"wallet,omitempty"`
		Category *string          `json:"category,omitempty"`
		Repeat   *string          `json:"repeat,omitempty"`
		Note     *string          `json:"note,omitempty"`
		Picture  *string          `json:"picture,omitempty"`
	}

	SubscriptionPatch struct {
		Name           *string          `json:"name,omitempty"`
		Amount         *decimal.Decimal `json:"amount,omitempty"`
		Currency       *string          `json:"currency,omitempty"`
		BillingDate    *time.Time       `json:"billing_date,omitempty"`
		Repeat         *string          `json:"repeat,omitempty"`
		ReminderBefore *int             `json:"reminder_before,omitempty"`
		Category       *string          `json:"category,omitempty"`
	}
)

func (p WalletPatch) Apply(w Wallet) Wallet {
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.InitAmount != nil {
		w.InitAmount = *p.InitAmount
	}
	if p.Currency != nil {
		w.Currency = *p.Currency
	}
	if p.VisibleCategory != nil {
		w.VisibleCategory = *p.VisibleCategory
	}
	return w
}

// Apply is a shallow merge; the id is never patched.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Currency != nil {
		t.Currency = *p.Currency
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Wallet != nil {
		t.Wallet = *p.Wallet
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Repeat != nil {
		t.Repeat = *p.Repeat
	}
	if p.Note != nil {
		t.Note = *p.Note
	}
	if p.Picture != nil {
		t.Picture = *p.Picture
	}
	return t
}

func (p SubscriptionPatch) Apply(s Subscription) Subscription {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Amount != nil {
		s.Amount = *p.Amount
	}
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.BillingDate != nil {
		s.BillingDate = *p.BillingDate
	}
	if p.Repeat != nil {
		s.Repeat = *p.Repeat
	}
	if p.ReminderBefore != nil {
		s.ReminderBefore = *p.ReminderBefore
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	return s
}
