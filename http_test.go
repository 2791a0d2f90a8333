package debitxgo_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/arhyth/debitxgo"
	"github.com/arhyth/debitxgo/mocks"
)

func newTestHandler(t *testing.T, svc debitxgo.Service) http.Handler {
	t.Helper()
	nooplog := zerolog.Nop()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return debitxgo.NewHTTPHandler(svc, node, &nooplog)
}

func TestHTTPCreateAccount(t *testing.T) {
	t.Run("returns the created account with a minted ID", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			CreateAccount(gomock.AssignableToTypeOf(debitxgo.CreateAccountReq{})).
			DoAndReturn(func(r debitxgo.CreateAccountReq) (*debitxgo.Account, error) {
				as.NotEmpty(r.ID)
				return &debitxgo.Account{ID: r.ID, Owner: r.Owner, Balance: r.Balance}, nil
			}).
			Times(1)

		hndlr := newTestHandler(tt, svc)
		body := bytes.NewBufferString(`{"owner":"ana","balance":1000}`)
		req := httptest.NewRequest(http.MethodPost, "/accounts", body)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusCreated, w.Code)
		var acct debitxgo.Account
		reqrd.Nil(json.Unmarshal(w.Body.Bytes(), &acct))
		as.NotEmpty(acct.ID)
		as.Equal("ana", acct.Owner)
		as.EqualValues(1000, acct.Balance)
	})

	t.Run("returns conflict on a taken ID", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			CreateAccount(gomock.AssignableToTypeOf(debitxgo.CreateAccountReq{})).
			Return(nil, debitxgo.ErrAlreadyExists{ID: "a1"}).
			Times(1)

		hndlr := newTestHandler(tt, svc)
		body := bytes.NewBufferString(`{"id":"a1","owner":"ana","balance":1000}`)
		req := httptest.NewRequest(http.MethodPost, "/accounts", body)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusConflict, w.Code)
	})
}

func TestHTTPWithdraw(t *testing.T) {
	t.Run("returns the receipt on success", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			Withdraw(debitxgo.Transaction{ID: "t1", AcctID: "a1", Amount: 300}).
			Return(&debitxgo.WithdrawalReceipt{
				TxnID: "t1",
				Acct:  debitxgo.Account{ID: "a1", Owner: "ana", Balance: 700, Version: 1},
			}, nil).
			Times(1)

		hndlr := newTestHandler(tt, svc)
		body := bytes.NewBufferString(`{"id":"t1","amount":300}`)
		req := httptest.NewRequest(http.MethodPost, "/accounts/a1/withdraw", body)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusOK, w.Code)
		var rcpt debitxgo.WithdrawalReceipt
		reqrd.Nil(json.Unmarshal(w.Body.Bytes(), &rcpt))
		as.Equal("t1", rcpt.TxnID)
		as.EqualValues(700, rcpt.Acct.Balance)
	})

	t.Run("returns error on malformed request body", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		hndlr := newTestHandler(tt, svc)

		body := bytes.NewBufferString(`{"id":"t1","amount":300`)
		req := httptest.NewRequest(http.MethodPost, "/accounts/a1/withdraw", body)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusBadRequest, w.Code)
		resp := map[string]map[string]string{}
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		reqrd.Nil(err)
		as.Contains(resp, "fields")
		as.Contains(resp["fields"], "request body")
	})

	t.Run("maps insufficient funds to 422", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			Withdraw(gomock.AssignableToTypeOf(debitxgo.Transaction{})).
			Return(nil, debitxgo.ErrInsufficientFunds{AcctID: "a1", Balance: 100, Amount: 300}).
			Times(1)

		hndlr := newTestHandler(tt, svc)
		body := bytes.NewBufferString(`{"id":"t1","amount":300}`)
		req := httptest.NewRequest(http.MethodPost, "/accounts/a1/withdraw", body)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("maps duplicate-wait timeout to 504", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			Withdraw(gomock.AssignableToTypeOf(debitxgo.Transaction{})).
			Return(nil, debitxgo.ErrTimeout{TxnID: "t1"}).
			Times(1)

		hndlr := newTestHandler(tt, svc)
		body := bytes.NewBufferString(`{"id":"t1","amount":300}`)
		req := httptest.NewRequest(http.MethodPost, "/accounts/a1/withdraw", body)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusGatewayTimeout, w.Code)
	})
}

func TestHTTPWithdrawBatch(t *testing.T) {
	t.Run("returns partitioned results", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			WithdrawBatch(gomock.AssignableToTypeOf([]debitxgo.Transaction{})).
			Return(debitxgo.BatchResult{
				Successful: []debitxgo.WithdrawalReceipt{
					{TxnID: "t1", Acct: debitxgo.Account{ID: "a1", Balance: 700, Version: 1}},
				},
				Failed: []debitxgo.BatchFailure{
					{
						Txn: debitxgo.Transaction{ID: "t2", AcctID: "ghost", Amount: 100},
						Err: debitxgo.ErrNotFound{ID: "ghost"},
					},
				},
			}).
			Times(1)

		hndlr := newTestHandler(tt, svc)
		body := bytes.NewBufferString(`{"transactions":[
			{"id":"t1","account_id":"a1","amount":300},
			{"id":"t2","account_id":"ghost","amount":100}
		]}`)
		req := httptest.NewRequest(http.MethodPost, "/withdrawals", body)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusOK, w.Code)
		var resp struct {
			Successful []debitxgo.WithdrawalReceipt `json:"successful"`
			Failed     []struct {
				Txn   debitxgo.Transaction `json:"transaction"`
				Error string               `json:"error"`
			} `json:"failed"`
		}
		reqrd.Nil(json.Unmarshal(w.Body.Bytes(), &resp))
		reqrd.Len(resp.Successful, 1)
		reqrd.Len(resp.Failed, 1)
		as.Equal("t2", resp.Failed[0].Txn.ID)
		as.Equal("account not found", resp.Failed[0].Error)
	})
}

func TestHTTPBalance(t *testing.T) {
	t.Run("returns the balance", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			Balance("a1").
			Return(int64(700), nil).
			Times(1)

		hndlr := newTestHandler(tt, svc)
		req := httptest.NewRequest(http.MethodGet, "/accounts/a1/balance", nil)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusOK, w.Code)
		resp := map[string]int64{}
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		as.Nil(err)
		as.EqualValues(700, resp["balance"])
	})

	t.Run("returns 404 for an unknown account", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			Balance("ghost").
			Return(int64(0), debitxgo.ErrNotFound{ID: "ghost"}).
			Times(1)

		hndlr := newTestHandler(tt, svc)
		req := httptest.NewRequest(http.MethodGet, "/accounts/ghost/balance", nil)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusNotFound, w.Code)
	})
}
