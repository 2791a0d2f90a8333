package debitxgo

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type withdrawJSONReq struct {
	TxnID  string `json:"id"`
	Amount int64  `json:"amount"`
}

type balanceJSONResp struct {
	Balance int64 `json:"balance"`
}

type batchJSONReq struct {
	Transactions []Transaction `json:"transactions"`
}

type batchFailureJSONResp struct {
	Txn   Transaction `json:"transaction"`
	Error string      `json:"error"`
}

type batchJSONResp struct {
	Successful []WithdrawalReceipt    `json:"successful"`
	Failed     []batchFailureJSONResp `json:"failed"`
}

func NewHTTPHandler(svc Service, node *snowflake.Node, log *zerolog.Logger) http.Handler {
	hndlr := &httpHandler{
		Svc:  svc,
		Node: node,
		Log:  log,
	}
	mux := chi.NewMux()
	mux.NotFound(HTTPNotFound)
	mux.Post("/accounts", hndlr.CreateAccount)
	mux.Post("/withdrawals", hndlr.WithdrawBatch)
	mux.Route("/accounts/{acctID}", func(r chi.Router) {
		r.Post("/withdraw", hndlr.Withdraw)
		r.Get("/balance", hndlr.Balance)
		r.Get("/statement", hndlr.Statement)
	})

	return mux
}

type httpHandler struct {
	Svc  Service
	Node *snowflake.Node
	Log  *zerolog.Logger
}

func (h *httpHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.Log.Err(err).Str("method", "create_account").Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return
	}
	var req CreateAccountReq
	if err = json.Unmarshal(buf, &req); err != nil {
		h.Log.Err(err).Str("method", "create_account").Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	if req.ID == "" {
		req.ID = h.Node.Generate().String()
	}
	acct, err := h.Svc.CreateAccount(req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err = json.NewEncoder(w).Encode(acct); err != nil {
		h.Log.Err(err).Str("method", "create_account").Msg("error encoding response")
	}
}

func (h *httpHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.Log.Err(err).Str("method", "withdraw").Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return
	}
	var req withdrawJSONReq
	if err = json.Unmarshal(buf, &req); err != nil {
		h.Log.Err(err).Str("method", "withdraw").Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	txn := Transaction{
		ID:     req.TxnID,
		AcctID: chi.URLParam(r, "acctID"),
		Amount: req.Amount,
	}
	rcpt, err := h.Svc.Withdraw(txn)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(rcpt); err != nil {
		h.Log.Err(err).Str("method", "withdraw").Msg("error encoding response")
	}
}

func (h *httpHandler) WithdrawBatch(w http.ResponseWriter, r *http.Request) {
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.Log.Err(err).Str("method", "withdraw_batch").Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return
	}
	var req batchJSONReq
	if err = json.Unmarshal(buf, &req); err != nil {
		h.Log.Err(err).Str("method", "withdraw_batch").Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	res := h.Svc.WithdrawBatch(req.Transactions)
	resp := batchJSONResp{
		Successful: res.Successful,
		Failed:     make([]batchFailureJSONResp, 0, len(res.Failed)),
	}
	for _, f := range res.Failed {
		resp.Failed = append(resp.Failed, batchFailureJSONResp{
			Txn:   f.Txn,
			Error: f.Err.Error(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(resp); err != nil {
		h.Log.Err(err).Str("method", "withdraw_batch").Msg("error encoding response")
	}
}

func (h *httpHandler) Balance(w http.ResponseWriter, r *http.Request) {
	bal, err := h.Svc.Balance(chi.URLParam(r, "acctID"))
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	resp := balanceJSONResp{Balance: bal}
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(resp); err != nil {
		h.Log.Err(err).Str("method", "balance").Msg("error encoding response")
	}
}

func (h *httpHandler) Statement(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/pdf")
	if err := h.Svc.Statement(w, chi.URLParam(r, "acctID")); err != nil {
		WriteHTTPError(w, err)
		return
	}
}

func WriteHTTPError(w http.ResponseWriter, err error) {
	var ne error
	defer func() {
		if ne != nil {
			log.Error().
				Err(ne).
				Msg("error response encoding failed")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	var (
		errnf ErrNotFound
		errbr ErrBadRequest
		errae ErrAlreadyExists
		errif ErrInsufficientFunds
		errto ErrTimeout
		errre ErrRetriesExhausted
	)
	switch {
	case errors.As(err, &errnf):
		w.WriteHeader(http.StatusNotFound)
		ne = json.NewEncoder(w).Encode(errnf)
	case errors.As(err, &errbr):
		w.WriteHeader(http.StatusBadRequest)
		ne = json.NewEncoder(w).Encode(errbr)
	case errors.As(err, &errae):
		w.WriteHeader(http.StatusConflict)
		ne = json.NewEncoder(w).Encode(errae)
	case errors.As(err, &errif):
		w.WriteHeader(http.StatusUnprocessableEntity)
		ne = json.NewEncoder(w).Encode(errif)
	case errors.As(err, &errto):
		w.WriteHeader(http.StatusGatewayTimeout)
		ne = json.NewEncoder(w).Encode(errto)
	case errors.As(err, &errre):
		w.WriteHeader(http.StatusServiceUnavailable)
		ne = json.NewEncoder(w).Encode(errre)
	case errors.Is(err, ErrOverloaded):
		w.WriteHeader(http.StatusServiceUnavailable)
		ne = json.NewEncoder(w).Encode(map[string]string{"message": "service overloaded"})
	default:
		w.WriteHeader(http.StatusInternalServerError)
		ne = json.NewEncoder(w).Encode(map[string]string{"message": "server error"})
	}
}

func HTTPNotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]string{
		"path": r.URL.Path,
	}
	json.NewEncoder(w).Encode(resp)
}
