package debitxgo

import (
	"errors"
	"fmt"
)

var (
	ErrInternalServer = errors.New("internal server error")
	ErrOverloaded     = errors.New("service overloaded")
)

type ErrBadRequest struct {
	Fields map[string]string `json:"fields"`
}

func (e ErrBadRequest) Error() string {
	return fmt.Sprintf("missing/invalid params: %v", e.Fields)
}

type ErrNotFound struct {
	ID string `json:"id"`
}

func (e ErrNotFound) Error() string {
	return "account not found"
}

type ErrAlreadyExists struct {
	ID string `json:"id"`
}

func (e ErrAlreadyExists) Error() string {
	return "account already exists"
}

type ErrInsufficientFunds struct {
	AcctID  string `json:"account_id"`
	Balance int64  `json:"balance"`
	Amount  int64  `json:"amount"`
}

func (e ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, requested %d", e.Balance, e.Amount)
}

// ErrVersionConflict is returned by CompareAndSwap when a concurrent writer
// has advanced the account version since it was read. It is recoverable by
// re-reading and retrying and is never surfaced unless retries exhaust.
type ErrVersionConflict struct {
	AcctID   string `json:"account_id"`
	Expected int64  `json:"expected_version"`
}

func (e ErrVersionConflict) Error() string {
	return fmt.Sprintf("version conflict on account %s at version %d", e.AcctID, e.Expected)
}

// ErrTimeout is returned to a duplicate submitter whose peer claimed the
// transaction but never completed it within the poll window. The outcome
// is unknown; the caller should check again later.
type ErrTimeout struct {
	TxnID string `json:"transaction_id"`
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("timed out waiting for transaction %s to complete", e.TxnID)
}

type ErrRetriesExhausted struct {
	Attempts int   `json:"attempts"`
	Last     error `json:"-"`
}

func (e ErrRetriesExhausted) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e ErrRetriesExhausted) Unwrap() error {
	return e.Last
}
