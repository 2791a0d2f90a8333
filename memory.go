package debitxgo

import (
	"sync"
	"time"
)

var (
	_ AccountStore     = (*MemAccountStore)(nil)
	_ IdempotencyStore = (*MemIdempotencyStore)(nil)
)

// MemAccountStore is the in-memory AccountStore. A single mutex guards the
// account map; every mutation goes through CompareAndSwap so the critical
// section is only ever a map read plus a conditional write, never a
// business-logic wait.
type MemAccountStore struct {
	mu      sync.Mutex
	accts   map[string]Account
	charges map[string][]Charge
}

func NewMemAccountStore() *MemAccountStore {
	return &MemAccountStore{
		accts:   make(map[string]Account),
		charges: make(map[string][]Charge),
	}
}

func (m *MemAccountStore) CreateAccount(acct Account) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accts[acct.ID]; ok {
		return nil, ErrAlreadyExists{ID: acct.ID}
	}
	acct.Version = 0
	m.accts[acct.ID] = acct
	return &acct, nil
}

func (m *MemAccountStore) GetAccount(id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accts[id]
	if !ok {
		return nil, ErrNotFound{ID: id}
	}
	return &acct, nil
}

func (m *MemAccountStore) CompareAndSwap(id string, expectedVersion int64, acct Account, chg Charge) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.accts[id]
	if !ok {
		return nil, ErrNotFound{ID: id}
	}
	if cur.Version != expectedVersion {
		return nil, ErrVersionConflict{AcctID: id, Expected: expectedVersion}
	}
	acct.ID = id
	acct.Version = expectedVersion + 1
	m.accts[id] = acct
	m.charges[id] = append(m.charges[id], chg)
	return &acct, nil
}

func (m *MemAccountStore) AccountCharges(id string) ([]Charge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accts[id]; !ok {
		return nil, ErrNotFound{ID: id}
	}
	out := make([]Charge, len(m.charges[id]))
	copy(out, m.charges[id])
	return out, nil
}

// MemIdempotencyStore is the in-memory IdempotencyStore. ClaimPending is a
// single locked check-and-insert, the mutual-exclusion point that picks one
// winner among concurrent submitters of the same transaction ID.
type MemIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*IdempotencyEntry
}

func NewMemIdempotencyStore() *MemIdempotencyStore {
	return &MemIdempotencyStore{
		entries: make(map[string]*IdempotencyEntry),
	}
}

func (m *MemIdempotencyStore) ClaimPending(txnID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[txnID]; ok {
		return false
	}
	m.entries[txnID] = &IdempotencyEntry{
		TxnID:     txnID,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	return true
}

func (m *MemIdempotencyStore) Complete(txnID string, receipt *WithdrawalReceipt, opErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[txnID]
	if !ok || e.Status == StatusCompleted {
		return
	}
	e.Status = StatusCompleted
	e.Receipt = receipt
	e.Err = opErr
}

func (m *MemIdempotencyStore) GetEntry(txnID string) (*IdempotencyEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[txnID]
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}
