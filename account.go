package debitxgo

import "time"

//go:generate mockgen -source=account.go -destination=mocks/account.go -package=mocks

// Account is a versioned balance record. Balance is held in minor units
// (e.g., cents). Version starts at 0 on creation and increases by exactly 1
// on every successful write.
type Account struct {
	ID      string `json:"id"`
	Owner   string `json:"owner"`
	Balance int64  `json:"balance"`
	Version int64  `json:"version"`
}

// Charge is a journal entry for a debit applied to an account. Charges are
// appended by the store inside the same critical section (or database
// transaction) as the balance write that produced them.
type Charge struct {
	TxnID  string    `json:"transaction_id"`
	Amount int64     `json:"amount"`
	At     time.Time `json:"at"`
}

// AccountStore holds account records. CompareAndSwap is the only mutator of
// an existing account and must be atomic with respect to concurrent callers.
type AccountStore interface {
	// CreateAccount stores a new account with Version 0. Returns
	// ErrAlreadyExists if the ID is taken.
	CreateAccount(acct Account) (*Account, error)
	// GetAccount returns a snapshot of the account, ErrNotFound if absent.
	GetAccount(id string) (*Account, error)
	// CompareAndSwap replaces the stored account only if its current version
	// equals expectedVersion, storing acct with Version = expectedVersion+1
	// and recording chg in the account's journal. On a version mismatch it
	// returns ErrVersionConflict and mutates nothing.
	CompareAndSwap(id string, expectedVersion int64, acct Account, chg Charge) (*Account, error)
	// AccountCharges returns the debits applied to the account, oldest first.
	AccountCharges(id string) ([]Charge, error)
}
