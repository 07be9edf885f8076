package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AccountCash    AccountType = "cash"
	AccountCard    AccountType = "card"
	AccountBank    AccountType = "bank"
	AccountSavings AccountType = "savings"
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

type (
	AccountType     string
	TransactionType string

	// Period is both a budget window and a recurring-rule frequency.
	Period string

	// Account holds a running balance for one user. The balance is kept
	// consistent with the transaction history incrementally, never
	// recomputed on read.
	Account struct {
		ID         string
		RemoteID   *string
		UserID     string
		Name       string
		Type       AccountType
		Currency   string
		Balance    decimal.Decimal
		Icon       string
		Color      string
		IsArchived bool
		CreatedAt  int64
		UpdatedAt  int64
		SyncedAt   *int64
	}

	Category struct {
		ID        string
		RemoteID  *string
		UserID    string
		Name      string
		Icon      string
		Color     string
		Type      TransactionType
		IsDefault bool
		ParentID  *string
		SortOrder int64
		CreatedAt int64
		UpdatedAt int64
		SyncedAt  *int64
	}

	Transaction struct {
		ID              string
		RemoteID        *string
		UserID          string
		AccountID       string
		CategoryID      string
		FamilyGroupID   *string
		Type            TransactionType
		Amount          decimal.Decimal
		Currency        string
		AmountInDefault *decimal.Decimal
		ExchangeRate    *decimal.Decimal
		Description     string
		Date            int64
		IsRecurring     bool
		RecurringID     *string
		VoiceInput      bool
		CreatedAt       int64
		UpdatedAt       int64
		SyncedAt        *int64
	}

	Budget struct {
		ID            string
		RemoteID      *string
		UserID        string
		FamilyGroupID *string
		CategoryID    *string
		Name          string
		Amount        decimal.Decimal
		Currency      string
		Period        Period
		StartDate     int64
		EndDate       *int64
		IsActive      bool
		CreatedAt     int64
		UpdatedAt     int64
		SyncedAt      *int64
	}

	RecurringRule struct {
		ID          string
		UserID      string
		AccountID   string
		CategoryID  string
		Type        TransactionType
		Amount      decimal.Decimal
		Currency    string
		Description string
		Frequency   Period
		NextDate    int64
		IsActive    bool
		CreatedAt   int64
		UpdatedAt   int64
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid type")
	ErrInvalidPeriod   = errors.New("invalid period")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyUser       = errors.New("empty user id")
	ErrMissingAccount  = errors.New("missing account id")
	ErrMissingCategory = errors.New("missing category id")
)

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// NowMillis is the timestamp convention for every persisted entity.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

func (t AccountType) Valid() bool {
	switch t {
	case AccountCash, AccountCard, AccountBank, AccountSavings:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

func (p Period) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUser
	}
	if t.AccountID == "" {
		return ErrMissingAccount
	}
	if t.CategoryID == "" {
		return ErrMissingCategory
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// SignedAmount is the balance-ledger delta this transaction contributes to
// its account: +amount for income, -amount for expense. Transfers carry no
// single-account delta in this model.
func (t Transaction) SignedAmount() decimal.Decimal {
	switch t.Type {
	case Income:
		return t.Amount
	case Expense:
		return t.Amount.Neg()
	default:
		return decimal.Zero
	}
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

func (r RecurringRule) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrEmptyUser
	}
	if r.AccountID == "" {
		return ErrMissingAccount
	}
	if r.CategoryID == "" {
		return ErrMissingCategory
	}
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !r.Frequency.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}
