package debitxgo

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=service.go -destination=mocks/service.go -package=mocks

type CreateAccountReq struct {
	ID      string `json:"id"`
	Owner   string `json:"owner"`
	Balance int64  `json:"balance"`
}

// Transaction is a caller-supplied debit intent. ID doubles as the
// idempotency key: resubmitting the same ID yields at most one debit.
type Transaction struct {
	ID     string `json:"id"`
	AcctID string `json:"account_id"`
	Amount int64  `json:"amount"`
}

// WithdrawalReceipt is returned once per transaction ID; duplicate
// submitters receive the identical payload from the idempotency cache.
type WithdrawalReceipt struct {
	TxnID string  `json:"transaction_id"`
	Acct  Account `json:"account"`
}

type BatchFailure struct {
	Txn Transaction `json:"transaction"`
	Err error       `json:"-"`
}

type BatchResult struct {
	Successful []WithdrawalReceipt `json:"successful"`
	Failed     []BatchFailure      `json:"failed"`
}

type Service interface {
	CreateAccount(req CreateAccountReq) (*Account, error)
	Withdraw(txn Transaction) (*WithdrawalReceipt, error)
	WithdrawBatch(txns []Transaction) BatchResult
	Balance(acctID string) (int64, error)
	Statement(w io.Writer, acctID string) error
}

// WorkflowConfig bounds the two waits in the withdrawal path: the CAS retry
// backoff and the duplicate-submission poll.
type WorkflowConfig struct {
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
	BatchLimit   int
}

func (c WorkflowConfig) withDefaults() WorkflowConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 50 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 2 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 20 * time.Millisecond
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 5 * time.Second
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = 16
	}
	return c
}

func NewService(accts AccountStore, idem IdempotencyStore, cfg WorkflowConfig, log *zerolog.Logger) (*serviceImpl, error) {
	if accts == nil || idem == nil {
		return nil, errors.New("nil store")
	}
	return &serviceImpl{
		accts: accts,
		idem:  idem,
		cfg:   cfg.withDefaults(),
		log:   log,
	}, nil
}

type serviceImpl struct {
	accts AccountStore
	idem  IdempotencyStore
	cfg   WorkflowConfig
	log   *zerolog.Logger
}

var (
	_ Service = (*serviceImpl)(nil)
)

func (s *serviceImpl) CreateAccount(req CreateAccountReq) (*Account, error) {
	return s.accts.CreateAccount(Account{
		ID:      req.ID,
		Owner:   req.Owner,
		Balance: req.Balance,
	})
}

// Withdraw debits txn.Amount from txn.AcctID exactly once per transaction
// ID. The first claimant of the ID executes the debit under optimistic
// retry; everyone else waits for the claimant's cached outcome.
func (s *serviceImpl) Withdraw(txn Transaction) (*WithdrawalReceipt, error) {
	// The validation middleware already rejects these, but the workflow is
	// usable without it and a non-positive amount would credit the account.
	// Rejecting before the claim keeps the transaction ID unburnt.
	if err := validateTxn(txn); err != nil {
		return nil, err
	}
	if !s.idem.ClaimPending(txn.ID) {
		return s.awaitPeer(txn.ID)
	}

	var (
		receipt *WithdrawalReceipt
		final   error
	)
	// The claim must not be left pending on any return path, success or
	// failure, or duplicates would poll until timeout. Only a process
	// crash may leave it pending, which peers absorb via ErrTimeout.
	defer func() {
		s.idem.Complete(txn.ID, receipt, final)
	}()

	res := Retry(func() (*WithdrawalReceipt, error) {
		return s.debit(txn)
	}, RetryOpts{
		MaxRetries:  s.cfg.MaxRetries,
		BaseDelay:   s.cfg.BaseDelay,
		MaxDelay:    s.cfg.MaxDelay,
		IsRetryable: retryableDebit,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			s.log.Debug().
				Err(err).
				Str("txn_id", txn.ID).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("retrying debit")
		},
	})
	if res.Err != nil {
		if res.WasRetryable {
			final = ErrRetriesExhausted{Attempts: res.Attempts, Last: res.Err}
		} else {
			final = res.Err
		}
		return nil, final
	}

	receipt = res.Data
	return receipt, nil
}

// debit is a single optimistic attempt: fresh read, funds check, CAS. A
// version conflict means a concurrent writer won the race; the retry loop
// re-reads rather than blindly re-applying.
func (s *serviceImpl) debit(txn Transaction) (*WithdrawalReceipt, error) {
	acct, err := s.accts.GetAccount(txn.AcctID)
	if err != nil {
		return nil, err
	}
	if txn.Amount > acct.Balance {
		return nil, ErrInsufficientFunds{
			AcctID:  acct.ID,
			Balance: acct.Balance,
			Amount:  txn.Amount,
		}
	}

	updated := *acct
	updated.Balance = acct.Balance - txn.Amount
	swapped, err := s.accts.CompareAndSwap(acct.ID, acct.Version, updated, Charge{
		TxnID:  txn.ID,
		Amount: txn.Amount,
		At:     time.Now(),
	})
	if err != nil {
		return nil, err
	}

	return &WithdrawalReceipt{TxnID: txn.ID, Acct: *swapped}, nil
}

// retryableDebit classifies debit errors. Version conflicts and transient
// server faults are worth another attempt; business-consistent failures
// such as insufficient funds are not.
func retryableDebit(err error) bool {
	var conflict ErrVersionConflict
	if errors.As(err, &conflict) {
		return true
	}
	return errors.Is(err, ErrInternalServer)
}

// awaitPeer polls the idempotency entry for txn completion by whichever
// caller holds the claim. The poll never holds a lock; it is a cooperative
// wait bounded by PollTimeout.
func (s *serviceImpl) awaitPeer(txnID string) (*WithdrawalReceipt, error) {
	deadline := time.Now().Add(s.cfg.PollTimeout)
	tick := time.NewTicker(s.cfg.PollInterval)
	defer tick.Stop()

	for {
		if e, ok := s.idem.GetEntry(txnID); ok && e.Status == StatusCompleted {
			return e.Receipt, e.Err
		}
		if time.Now().After(deadline) {
			s.log.Warn().
				Str("txn_id", txnID).
				Dur("timeout", s.cfg.PollTimeout).
				Msg("peer never completed transaction")
			return nil, ErrTimeout{TxnID: txnID}
		}
		<-tick.C
	}
}

// WithdrawBatch fans txns out concurrently, at most BatchLimit in flight,
// and partitions outcomes. Transactions are independent; no ordering is
// guaranteed across them.
func (s *serviceImpl) WithdrawBatch(txns []Transaction) BatchResult {
	var (
		mu  sync.Mutex
		res BatchResult
	)
	grp := new(errgroup.Group)
	grp.SetLimit(s.cfg.BatchLimit)
	for _, txn := range txns {
		txn := txn
		grp.Go(func() error {
			rcpt, err := s.Withdraw(txn)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed = append(res.Failed, BatchFailure{Txn: txn, Err: err})
				return nil
			}
			res.Successful = append(res.Successful, *rcpt)
			return nil
		})
	}
	// Workers never return errors; failures are partitioned instead.
	_ = grp.Wait()
	return res
}

func (s *serviceImpl) Balance(acctID string) (int64, error) {
	acct, err := s.accts.GetAccount(acctID)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

func (s *serviceImpl) Statement(w io.Writer, acctID string) error {
	acct, err := s.accts.GetAccount(acctID)
	if err != nil {
		return err
	}
	charges, err := s.accts.AccountCharges(acctID)
	if err != nil {
		return err
	}
	return writeStatementPDF(w, acct, charges)
}
