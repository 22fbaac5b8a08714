package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// RepeatNone marks a transaction or subscription that does not recur.
const RepeatNone = "None"

const (
	Daily   RepetitionTypes = "daily"
	Weekly  RepetitionTypes = "weekly"
	Monthly RepetitionTypes = "monthly"
	Yearly  RepetitionTypes = "yearly"
)

type (
	TransactionType string
	RepetitionTypes string

	// Wallet is identified by its name; there is no surrogate key.
	Wallet struct {
		Name            string          `json:"name" db:"name"`
		InitAmount      decimal.Decimal `json:"init_amount" db:"init_amount"`
		Currency        string          `json:"currency" db:"currency"`
		VisibleCategory string          `json:"visible_category" db:"visible_category"`
	}

	Category struct {
		Name string `json:"name" db:"name"`
	}

	// Transaction is a ledger entry. Wallet and Category hold the referenced
	// names, not surrogate keys; renames cascade into them.
	Transaction struct {
		ID       int64           `json:"id" db:"id"`
		Type     TransactionType `json:"type" db:"type"`
		Amount   decimal.Decimal `json:"amount" db:"amount"`
		Currency string          `json:"currency" db:"currency"`
		Date     time.Time       `json:"date" db:"date"`
		Wallet   string          `json:"wallet" db:"wallet"`
		Category string          `json:"category" db:"category"`
		Repeat   string          `json:"repeat" db:"repeat"`
		Note     string          `json:"note" db:"note"`
		Picture  string          `json:"picture" db:"picture"`
	}

	Subscription struct {
		Name           string          `json:"name" db:"name"`
		Amount         decimal.Decimal `json:"amount" db:"amount"`
		Currency       string          `json:"currency" db:"currency"`
		BillingDate    time.Time       `json:"billing_date" db:"billing_date"`
		Repeat         string          `json:"repeat" db:"repeat"`
		ReminderBefore int             `json:"reminder_before" db:"reminder_before"` // days
		Category       string          `json:"category" db:"category"`
	}

	WalletBalance struct {
		Wallet  Wallet          `json:"wallet"`
		Balance decimal.Decimal `json:"balance"`
	}
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("duplicate name")
	ErrConflict      = errors.New("conflict")
	ErrStorage       = errors.New("storage failure")
	ErrRemoteSync    = errors.New("remote sync failed")
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyWallet     = errors.New("empty wallet")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidRepeat   = errors.New("invalid repeat")
)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidType, string(t))
	}
}

// Sign is +1 for income and -1 for expense.
func (t TransactionType) Sign() decimal.Decimal {
	if t == Expense {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

func (w Wallet) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyName
	}
	if len(w.Name) > 100 {
		return errors.New("wallet name too long (max 100 characters)")
	}
	return ValidateCurrency(w.Currency)
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.Wallet) == "" {
		return ErrEmptyWallet
	}
	if t.Currency != "" {
		if err := ValidateCurrency(t.Currency); err != nil {
			return err
		}
	}
	if !IsValidRepeat(t.Repeat) {
		return fmt.Errorf("%w: %q", ErrInvalidRepeat, t.Repeat)
	}
	if len(t.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

// SignedAmount is the transaction's contribution to its wallet balance.
func (t Transaction) SignedAmount() decimal.Decimal {
	return t.Amount.Mul(t.Type.Sign())
}

func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if !s.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if s.Currency != "" {
		if err := ValidateCurrency(s.Currency); err != nil {
			return err
		}
	}
	if s.BillingDate.IsZero() {
		return ErrInvalidDate
	}
	if !IsValidRepeat(s.Repeat) {
		return fmt.Errorf("%w: %q", ErrInvalidRepeat, s.Repeat)
	}
	if s.ReminderBefore < 0 {
		return errors.New("reminder_before cannot be negative")
	}
	return nil
}

// ReminderDate is the day a reminder for the next billing should fire.
func (s Subscription) ReminderDate() time.Time {
	return s.BillingDate.AddDate(0, 0, -s.ReminderBefore)
}
