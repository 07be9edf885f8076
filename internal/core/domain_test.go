package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		UserID:     "user-1",
		AccountID:  "acc-1",
		CategoryID: "cat-1",
		Type:       Expense,
		Amount:     decimal.RequireFromString("100"),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.RequireFromString("-5") }, ErrInvalidAmount},
		{"unknown type", func(tx *Transaction) { tx.Type = "refund" }, ErrInvalidType},
		{"missing account", func(tx *Transaction) { tx.AccountID = "" }, ErrMissingAccount},
		{"missing category", func(tx *Transaction) { tx.CategoryID = "" }, ErrMissingCategory},
		{"missing user", func(tx *Transaction) { tx.UserID = " " }, ErrEmptyUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			if err := tx.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionSignedAmount(t *testing.T) {
	amount := decimal.RequireFromString("250.50")
	tests := []struct {
		typ  TransactionType
		want string
	}{
		{Income, "250.5"},
		{Expense, "-250.5"},
		{Transfer, "0"},
	}
	for _, tt := range tests {
		tx := Transaction{Type: tt.typ, Amount: amount}
		if got := tx.SignedAmount().String(); got != tt.want {
			t.Errorf("%s: SignedAmount() = %s, want %s", tt.typ, got, tt.want)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	b := Budget{
		UserID: "user-1",
		Name:   "Food",
		Amount: decimal.RequireFromString("100000"),
		Period: Monthly,
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("valid budget rejected: %v", err)
	}

	b.Period = "quarterly"
	if err := b.Validate(); err != ErrInvalidPeriod {
		t.Errorf("Validate() = %v, want %v", err, ErrInvalidPeriod)
	}

	b.Period = Monthly
	b.Amount = decimal.Zero
	if err := b.Validate(); err != ErrInvalidAmount {
		t.Errorf("Validate() = %v, want %v", err, ErrInvalidAmount)
	}
}

func TestAccountValidate(t *testing.T) {
	a := Account{UserID: "user-1", Name: "Cash", Type: AccountCash}
	if err := a.Validate(); err != nil {
		t.Fatalf("valid account rejected: %v", err)
	}

	a.Type = "crypto"
	if err := a.Validate(); err != ErrInvalidType {
		t.Errorf("Validate() = %v, want %v", err, ErrInvalidType)
	}
}

func TestOutboxItemDead(t *testing.T) {
	if (OutboxItem{Attempts: 2}).Dead() {
		t.Error("two attempts should still be pending")
	}
	if !(OutboxItem{Attempts: 3}).Dead() {
		t.Error("three attempts should be dead")
	}
}
