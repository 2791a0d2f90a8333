package debitxgo

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
)

type Middleware func(Service) Service

//
// Validation middleware
//

type validationMiddleware struct {
	next Service
}

var (
	_ Service = (*validationMiddleware)(nil)
)

func NewValidationMiddleware() Middleware {
	return func(svc Service) Service {
		return &validationMiddleware{
			next: svc,
		}
	}
}

func (v *validationMiddleware) CreateAccount(req CreateAccountReq) (*Account, error) {
	fields := make(map[string]string)
	if req.ID == "" {
		fields["id"] = "missing"
	}
	if req.Owner == "" {
		fields["owner"] = "missing"
	}
	if req.Balance < 0 {
		fields["balance"] = "must not be negative"
	}
	if len(fields) > 0 {
		return nil, ErrBadRequest{Fields: fields}
	}
	return v.next.CreateAccount(req)
}

func validateTxn(txn Transaction) error {
	fields := make(map[string]string)
	if txn.ID == "" {
		fields["id"] = "missing"
	}
	if txn.AcctID == "" {
		fields["account_id"] = "missing"
	}
	if txn.Amount <= 0 {
		fields["amount"] = "must be positive"
	}
	if len(fields) > 0 {
		return ErrBadRequest{Fields: fields}
	}
	return nil
}

func (v *validationMiddleware) Withdraw(txn Transaction) (*WithdrawalReceipt, error) {
	if err := validateTxn(txn); err != nil {
		return nil, err
	}
	return v.next.Withdraw(txn)
}

// WithdrawBatch weeds out malformed transactions up front so they never
// claim an idempotency slot; the rest proceed as one batch.
func (v *validationMiddleware) WithdrawBatch(txns []Transaction) BatchResult {
	var rejected []BatchFailure
	valid := txns[:0:0]
	for _, txn := range txns {
		if err := validateTxn(txn); err != nil {
			rejected = append(rejected, BatchFailure{Txn: txn, Err: err})
			continue
		}
		valid = append(valid, txn)
	}
	res := v.next.WithdrawBatch(valid)
	res.Failed = append(res.Failed, rejected...)
	return res
}

func (v *validationMiddleware) Balance(acctID string) (int64, error) {
	if acctID == "" {
		return 0, ErrBadRequest{Fields: map[string]string{"account_id": "missing"}}
	}
	return v.next.Balance(acctID)
}

func (v *validationMiddleware) Statement(w io.Writer, acctID string) error {
	if acctID == "" {
		return ErrBadRequest{Fields: map[string]string{"account_id": "missing"}}
	}
	return v.next.Statement(w, acctID)
}

//
// Rate limiting middlewares
//

// limitMiddleware sheds load by bounding in-flight requests per operation
// with weighted semaphores. Static limits are crude for a heterogeneous
// fleet but keep the service from drowning under a burst of retries.
type limitMiddleware struct {
	next    Service
	limits  *ServiceLimits
	timeout time.Duration
}

var (
	_ Service = (*limitMiddleware)(nil)
)

type ServiceLimits struct {
	CreateAccount *semaphore.Weighted
	Withdraw      *semaphore.Weighted
	WithdrawBatch *semaphore.Weighted
	Balance       *semaphore.Weighted
	Statement     *semaphore.Weighted
}

func NewLimitMiddleware(limits *ServiceLimits, acquireTimeout time.Duration) Middleware {
	return func(next Service) Service {
		return &limitMiddleware{
			next:    next,
			limits:  limits,
			timeout: acquireTimeout,
		}
	}
}

func (l *limitMiddleware) acquire(sem *semaphore.Weighted) (func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, ErrOverloaded
	}
	return func() { sem.Release(1) }, nil
}

func (l *limitMiddleware) CreateAccount(req CreateAccountReq) (*Account, error) {
	release, err := l.acquire(l.limits.CreateAccount)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.CreateAccount(req)
}

func (l *limitMiddleware) Withdraw(txn Transaction) (*WithdrawalReceipt, error) {
	release, err := l.acquire(l.limits.Withdraw)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.Withdraw(txn)
}

func (l *limitMiddleware) WithdrawBatch(txns []Transaction) BatchResult {
	release, err := l.acquire(l.limits.WithdrawBatch)
	if err != nil {
		failed := make([]BatchFailure, 0, len(txns))
		for _, txn := range txns {
			failed = append(failed, BatchFailure{Txn: txn, Err: err})
		}
		return BatchResult{Failed: failed}
	}
	defer release()
	return l.next.WithdrawBatch(txns)
}

func (l *limitMiddleware) Balance(acctID string) (int64, error) {
	release, err := l.acquire(l.limits.Balance)
	if err != nil {
		return 0, err
	}
	defer release()
	return l.next.Balance(acctID)
}

func (l *limitMiddleware) Statement(w io.Writer, acctID string) error {
	release, err := l.acquire(l.limits.Statement)
	if err != nil {
		return err
	}
	defer release()
	return l.next.Statement(w, acctID)
}

type ServiceBreaker struct {
	CreateAccount *gobreaker.TwoStepCircuitBreaker[*Account]
	Withdraw      *gobreaker.TwoStepCircuitBreaker[*WithdrawalReceipt]
	WithdrawBatch *gobreaker.TwoStepCircuitBreaker[BatchResult]
	Balance       *gobreaker.TwoStepCircuitBreaker[int64]
	Statement     *gobreaker.TwoStepCircuitBreaker[interface{}]
}

// circuitBreakMiddleware trips per-operation breakers on systemic faults.
// Business failures (insufficient funds, not found, bad request) count as
// successes; only server faults, exhausted retries, and peer timeouts feed
// the failure counters.
type circuitBreakMiddleware struct {
	next  Service
	brkrs *ServiceBreaker
}

var (
	_ Service = (*circuitBreakMiddleware)(nil)
)

func NewCircuitBreakMiddleware(brkrs *ServiceBreaker) Middleware {
	return func(next Service) Service {
		return &circuitBreakMiddleware{
			next:  next,
			brkrs: brkrs,
		}
	}
}

func tripworthy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInternalServer) {
		return true
	}
	var (
		exhausted ErrRetriesExhausted
		timeout   ErrTimeout
	)
	return errors.As(err, &exhausted) || errors.As(err, &timeout)
}

func (c *circuitBreakMiddleware) CreateAccount(req CreateAccountReq) (*Account, error) {
	done, err := c.brkrs.CreateAccount.Allow()
	if err != nil {
		return nil, ErrOverloaded
	}
	acct, err := c.next.CreateAccount(req)
	done(!tripworthy(err))
	return acct, err
}

func (c *circuitBreakMiddleware) Withdraw(txn Transaction) (*WithdrawalReceipt, error) {
	done, err := c.brkrs.Withdraw.Allow()
	if err != nil {
		return nil, ErrOverloaded
	}
	rcpt, err := c.next.Withdraw(txn)
	done(!tripworthy(err))
	return rcpt, err
}

func (c *circuitBreakMiddleware) WithdrawBatch(txns []Transaction) BatchResult {
	done, err := c.brkrs.WithdrawBatch.Allow()
	if err != nil {
		failed := make([]BatchFailure, 0, len(txns))
		for _, txn := range txns {
			failed = append(failed, BatchFailure{Txn: txn, Err: ErrOverloaded})
		}
		return BatchResult{Failed: failed}
	}
	res := c.next.WithdrawBatch(txns)
	systemic := false
	for _, f := range res.Failed {
		if tripworthy(f.Err) {
			systemic = true
			break
		}
	}
	done(!systemic)
	return res
}

func (c *circuitBreakMiddleware) Balance(acctID string) (int64, error) {
	done, err := c.brkrs.Balance.Allow()
	if err != nil {
		return 0, ErrOverloaded
	}
	bal, err := c.next.Balance(acctID)
	done(!tripworthy(err))
	return bal, err
}

func (c *circuitBreakMiddleware) Statement(w io.Writer, acctID string) error {
	done, err := c.brkrs.Statement.Allow()
	if err != nil {
		return ErrOverloaded
	}
	err = c.next.Statement(w, acctID)
	done(!tripworthy(err))
	return err
}
