package debitxgo

import "time"

//go:generate mockgen -source=idempotency.go -destination=mocks/idempotency.go -package=mocks

type IdempotencyStatus string

const (
	StatusPending   IdempotencyStatus = "pending"
	StatusCompleted IdempotencyStatus = "completed"
)

// IdempotencyEntry tracks how far a transaction ID has been processed.
// Exactly one of Receipt/Err is set once Status is StatusCompleted; a
// terminal failure is cached the same as a success so later duplicates of
// the transaction are answered without re-execution.
type IdempotencyEntry struct {
	TxnID     string             `json:"transaction_id"`
	Status    IdempotencyStatus  `json:"status"`
	Receipt   *WithdrawalReceipt `json:"receipt,omitempty"`
	Err       error              `json:"-"`
	CreatedAt time.Time          `json:"created_at"`
}

// IdempotencyStore tracks per-transaction dispatch state. ClaimPending is
// the single synchronization point that prevents double execution of a
// transaction ID.
type IdempotencyStore interface {
	// ClaimPending atomically inserts a pending entry for txnID if none
	// exists. It returns true only for the first claimant; contention is
	// expressed through the boolean, never an error.
	ClaimPending(txnID string) bool
	// Complete transitions the pending entry to completed carrying the final
	// receipt or terminal error. Calling it again for the same txnID is a
	// no-op.
	Complete(txnID string, receipt *WithdrawalReceipt, opErr error)
	// GetEntry returns the entry for txnID, false if the ID was never seen.
	GetEntry(txnID string) (*IdempotencyEntry, bool)
}
