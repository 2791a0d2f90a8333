package debitxgo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var (
	pgInsertAcctSQL = `
		INSERT INTO accounts (id, owner, balance, version)
		VALUES ($1, $2, $3, 0);
	`

	pgSelectAcctSQL = `
		SELECT owner, balance, version
		FROM accounts
		WHERE id = $1;
	`

	// The version predicate makes the UPDATE itself the compare-and-swap;
	// zero rows affected means a concurrent writer got there first.
	pgCASAcctSQL = `
		UPDATE accounts
		SET owner = $1, balance = $2, version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version;
	`

	pgInsertChargeSQL = `
		INSERT INTO charges (txn_id, acct_id, amount, applied_at)
		VALUES ($1, $2, $3, $4);
	`

	pgSelectChargesSQL = `
		SELECT txn_id, amount, applied_at
		FROM charges
		WHERE acct_id = $1
		ORDER BY applied_at;
	`

	pgClaimIntentSQL = `
		INSERT INTO withdrawal_intents (txn_id, status, created_at)
		VALUES ($1, 'pending', $2)
		ON CONFLICT (txn_id) DO NOTHING;
	`

	pgCompleteIntentSQL = `
		UPDATE withdrawal_intents
		SET status = 'completed', receipt = $2, err_kind = $3, err_detail = $4
		WHERE txn_id = $1 AND status = 'pending';
	`

	pgSelectIntentSQL = `
		SELECT status, receipt, err_kind, err_detail, created_at
		FROM withdrawal_intents
		WHERE txn_id = $1;
	`
)

const pgUniqueViolation = "23505"

type PostgresEndpoint struct {
	pool *pgxpool.Pool
	log  *zerolog.Logger
}

var (
	_ AccountStore     = (*PostgresEndpoint)(nil)
	_ IdempotencyStore = (*PostgresEndpoint)(nil)
)

func NewPostgresEndpoint(connStr string, log *zerolog.Logger) (*PostgresEndpoint, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	if err = pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	endpt := &PostgresEndpoint{
		pool: pool,
		log:  log,
	}
	return endpt, err
}

func (pg *PostgresEndpoint) CreateAccount(acct Account) (*Account, error) {
	ctx := context.Background()
	if _, err := pg.pool.Exec(ctx, pgInsertAcctSQL, acct.ID, acct.Owner, acct.Balance); err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == pgUniqueViolation {
			return nil, ErrAlreadyExists{ID: acct.ID}
		}
		return nil, err
	}
	acct.Version = 0
	return &acct, nil
}

func (pg *PostgresEndpoint) GetAccount(id string) (*Account, error) {
	ctx := context.Background()
	row := pg.pool.QueryRow(ctx, pgSelectAcctSQL, id)
	acct := Account{ID: id}
	if err := row.Scan(&acct.Owner, &acct.Balance, &acct.Version); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound{ID: id}
		}
		return nil, err
	}
	return &acct, nil
}

func (pg *PostgresEndpoint) CompareAndSwap(id string, expectedVersion int64, acct Account, chg Charge) (*Account, error) {
	ctx := context.Background()
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				pg.log.Err(rbErr).Str("acct_id", id).Msg("CAS rollback fail")
			}
		}
	}()

	row := tx.QueryRow(ctx, pgCASAcctSQL, acct.Owner, acct.Balance, id, expectedVersion)
	var newVersion int64
	if err = row.Scan(&newVersion); err != nil {
		if err != pgx.ErrNoRows {
			return nil, err
		}
		// Zero rows: the account is gone or the version moved. Look again
		// to report which.
		var exists bool
		if err = tx.QueryRow(ctx, `SELECT true FROM accounts WHERE id = $1`, id).Scan(&exists); err != nil {
			if err == pgx.ErrNoRows {
				err = ErrNotFound{ID: id}
				return nil, err
			}
			return nil, err
		}
		err = ErrVersionConflict{AcctID: id, Expected: expectedVersion}
		return nil, err
	}

	if _, err = tx.Exec(ctx, pgInsertChargeSQL, chg.TxnID, id, chg.Amount, chg.At); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	acct.ID = id
	acct.Version = newVersion
	return &acct, nil
}

func (pg *PostgresEndpoint) AccountCharges(id string) ([]Charge, error) {
	ctx := context.Background()
	if _, err := pg.GetAccount(id); err != nil {
		return nil, err
	}
	rows, err := pg.pool.Query(ctx, pgSelectChargesSQL, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []Charge
	for rows.Next() {
		var chg Charge
		if err = rows.Scan(&chg.TxnID, &chg.Amount, &chg.At); err != nil {
			return nil, err
		}
		charges = append(charges, chg)
	}
	return charges, rows.Err()
}

// ClaimPending relies on the txn_id primary key: the INSERT either lands and
// this caller wins, or conflicts and it does not. A database fault is
// reported as a lost claim; the caller then waits on the entry like any
// other duplicate and times out if no winner exists.
func (pg *PostgresEndpoint) ClaimPending(txnID string) bool {
	ctx := context.Background()
	ct, err := pg.pool.Exec(ctx, pgClaimIntentSQL, txnID, time.Now())
	if err != nil {
		pg.log.Err(err).Str("txn_id", txnID).Msg("claim insert fail")
		return false
	}
	return ct.RowsAffected() == 1
}

func (pg *PostgresEndpoint) Complete(txnID string, receipt *WithdrawalReceipt, opErr error) {
	ctx := context.Background()
	var receiptJSON []byte
	if receipt != nil {
		var err error
		if receiptJSON, err = json.Marshal(receipt); err != nil {
			pg.log.Err(err).Str("txn_id", txnID).Msg("receipt marshal fail")
			return
		}
	}
	kind, detail := encodeWorkflowErr(opErr)
	if _, err := pg.pool.Exec(ctx, pgCompleteIntentSQL, txnID, receiptJSON, kind, detail); err != nil {
		pg.log.Err(err).Str("txn_id", txnID).Msg("complete update fail")
	}
}

func (pg *PostgresEndpoint) GetEntry(txnID string) (*IdempotencyEntry, bool) {
	ctx := context.Background()
	row := pg.pool.QueryRow(ctx, pgSelectIntentSQL, txnID)
	var (
		status      string
		receiptJSON []byte
		kind        *string
		detail      []byte
	)
	e := IdempotencyEntry{TxnID: txnID}
	if err := row.Scan(&status, &receiptJSON, &kind, &detail, &e.CreatedAt); err != nil {
		if err != pgx.ErrNoRows {
			pg.log.Err(err).Str("txn_id", txnID).Msg("intent select fail")
		}
		return nil, false
	}
	e.Status = IdempotencyStatus(status)
	if len(receiptJSON) > 0 {
		var rcpt WithdrawalReceipt
		if err := json.Unmarshal(receiptJSON, &rcpt); err != nil {
			pg.log.Err(err).Str("txn_id", txnID).Msg("receipt unmarshal fail")
			return nil, false
		}
		e.Receipt = &rcpt
	}
	if kind != nil {
		e.Err = decodeWorkflowErr(*kind, detail)
	}
	return &e, true
}

const (
	errKindNotFound          = "not_found"
	errKindInsufficientFunds = "insufficient_funds"
	errKindVersionConflict   = "version_conflict"
	errKindTimeout           = "timeout"
	errKindRetriesExhausted  = "retries_exhausted"
	errKindServerError       = "server_error"
)

// exhaustedDetail round-trips ErrRetriesExhausted including its cause, so a
// duplicate served from the durable store sees the same error detail as the
// first caller did.
type exhaustedDetail struct {
	Attempts   int             `json:"attempts"`
	LastKind   string          `json:"last_kind,omitempty"`
	LastDetail json.RawMessage `json:"last_detail,omitempty"`
}

func encodeWorkflowErr(err error) (*string, []byte) {
	if err == nil {
		return nil, nil
	}
	var (
		kind   string
		detail any
	)
	var (
		errnf ErrNotFound
		errif ErrInsufficientFunds
		errvc ErrVersionConflict
		errto ErrTimeout
		errre ErrRetriesExhausted
	)
	switch {
	case errors.As(err, &errre):
		kind = errKindRetriesExhausted
		d := exhaustedDetail{Attempts: errre.Attempts}
		if lk, ld := encodeWorkflowErr(errre.Last); lk != nil {
			d.LastKind = *lk
			d.LastDetail = ld
		}
		detail = d
	case errors.As(err, &errnf):
		kind, detail = errKindNotFound, errnf
	case errors.As(err, &errif):
		kind, detail = errKindInsufficientFunds, errif
	case errors.As(err, &errvc):
		kind, detail = errKindVersionConflict, errvc
	case errors.As(err, &errto):
		kind, detail = errKindTimeout, errto
	default:
		kind, detail = errKindServerError, map[string]string{"message": err.Error()}
	}
	bits, merr := json.Marshal(detail)
	if merr != nil {
		bits = nil
	}
	return &kind, bits
}

func decodeWorkflowErr(kind string, detail []byte) error {
	switch kind {
	case errKindNotFound:
		var e ErrNotFound
		_ = json.Unmarshal(detail, &e)
		return e
	case errKindInsufficientFunds:
		var e ErrInsufficientFunds
		_ = json.Unmarshal(detail, &e)
		return e
	case errKindVersionConflict:
		var e ErrVersionConflict
		_ = json.Unmarshal(detail, &e)
		return e
	case errKindTimeout:
		var e ErrTimeout
		_ = json.Unmarshal(detail, &e)
		return e
	case errKindRetriesExhausted:
		var d exhaustedDetail
		_ = json.Unmarshal(detail, &d)
		e := ErrRetriesExhausted{Attempts: d.Attempts, Last: ErrInternalServer}
		if d.LastKind != "" {
			e.Last = decodeWorkflowErr(d.LastKind, d.LastDetail)
		}
		return e
	case errKindServerError:
		var d map[string]string
		_ = json.Unmarshal(detail, &d)
		if msg := d["message"]; msg != "" {
			return fmt.Errorf("%w: %s", ErrInternalServer, msg)
		}
		return ErrInternalServer
	default:
		return ErrInternalServer
	}
}
