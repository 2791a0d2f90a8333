package debitxgo_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhyth/debitxgo"
)

func TestMemAccountStore(t *testing.T) {
	t.Run("CreateAccount rejects a taken ID", func(tt *testing.T) {
		as := assert.New(tt)
		store := debitxgo.NewMemAccountStore()
		_, err := store.CreateAccount(debitxgo.Account{ID: "a1", Owner: "ana", Balance: 100})
		as.Nil(err)
		_, err = store.CreateAccount(debitxgo.Account{ID: "a1", Owner: "bob", Balance: 50})
		as.ErrorAs(err, &debitxgo.ErrAlreadyExists{})
	})

	t.Run("GetAccount on a missing ID returns not found", func(tt *testing.T) {
		as := assert.New(tt)
		store := debitxgo.NewMemAccountStore()
		_, err := store.GetAccount("ghost")
		as.ErrorAs(err, &debitxgo.ErrNotFound{})
	})

	t.Run("CompareAndSwap bumps the version and records the charge", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store := debitxgo.NewMemAccountStore()
		acct, err := store.CreateAccount(debitxgo.Account{ID: "a1", Owner: "ana", Balance: 1000})
		reqrd.Nil(err)
		reqrd.EqualValues(0, acct.Version)

		updated := *acct
		updated.Balance = 700
		swapped, err := store.CompareAndSwap("a1", 0, updated, debitxgo.Charge{
			TxnID:  "t1",
			Amount: 300,
			At:     time.Now(),
		})
		reqrd.Nil(err)
		as.EqualValues(1, swapped.Version)
		as.EqualValues(700, swapped.Balance)

		charges, err := store.AccountCharges("a1")
		reqrd.Nil(err)
		reqrd.Len(charges, 1)
		as.Equal("t1", charges[0].TxnID)
		as.EqualValues(300, charges[0].Amount)
	})

	t.Run("CompareAndSwap with a stale version mutates nothing", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store := debitxgo.NewMemAccountStore()
		acct, err := store.CreateAccount(debitxgo.Account{ID: "a1", Owner: "ana", Balance: 1000})
		reqrd.Nil(err)

		updated := *acct
		updated.Balance = 700
		_, err = store.CompareAndSwap("a1", 0, updated, debitxgo.Charge{TxnID: "t1", Amount: 300})
		reqrd.Nil(err)

		// same expected version again, as a raced loser would
		stale := *acct
		stale.Balance = 500
		_, err = store.CompareAndSwap("a1", 0, stale, debitxgo.Charge{TxnID: "t2", Amount: 500})
		as.ErrorAs(err, &debitxgo.ErrVersionConflict{})

		cur, err := store.GetAccount("a1")
		reqrd.Nil(err)
		as.EqualValues(700, cur.Balance)
		as.EqualValues(1, cur.Version)
		charges, err := store.AccountCharges("a1")
		reqrd.Nil(err)
		as.Len(charges, 1)
	})

	t.Run("CompareAndSwap on a missing ID returns not found", func(tt *testing.T) {
		as := assert.New(tt)
		store := debitxgo.NewMemAccountStore()
		_, err := store.CompareAndSwap("ghost", 0, debitxgo.Account{}, debitxgo.Charge{})
		as.ErrorAs(err, &debitxgo.ErrNotFound{})
	})
}

func TestMemIdempotencyStore(t *testing.T) {
	t.Run("concurrent claims have exactly one winner", func(tt *testing.T) {
		as := assert.New(tt)
		store := debitxgo.NewMemIdempotencyStore()

		const claimants = 64
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		start := make(chan struct{})
		for i := 0; i < claimants; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if store.ClaimPending("txn-1") {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		close(start)
		wg.Wait()
		as.Equal(1, wins)

		e, ok := store.GetEntry("txn-1")
		as.True(ok)
		as.Equal(debitxgo.StatusPending, e.Status)
	})

	t.Run("Complete transitions pending once and then no-ops", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store := debitxgo.NewMemIdempotencyStore()
		reqrd.True(store.ClaimPending("txn-1"))

		rcpt := &debitxgo.WithdrawalReceipt{
			TxnID: "txn-1",
			Acct:  debitxgo.Account{ID: "a1", Balance: 400, Version: 1},
		}
		store.Complete("txn-1", rcpt, nil)

		e, ok := store.GetEntry("txn-1")
		reqrd.True(ok)
		as.Equal(debitxgo.StatusCompleted, e.Status)
		reqrd.NotNil(e.Receipt)
		as.EqualValues(400, e.Receipt.Acct.Balance)

		// a second completion must not overwrite the cached outcome
		store.Complete("txn-1", nil, debitxgo.ErrTimeout{TxnID: "txn-1"})
		e, ok = store.GetEntry("txn-1")
		reqrd.True(ok)
		as.Nil(e.Err)
		as.NotNil(e.Receipt)
	})

	t.Run("Complete on an unknown ID is a no-op", func(tt *testing.T) {
		as := assert.New(tt)
		store := debitxgo.NewMemIdempotencyStore()
		store.Complete("never-claimed", nil, nil)
		_, ok := store.GetEntry("never-claimed")
		as.False(ok)
	})
}
