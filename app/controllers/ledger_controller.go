package controllers

import (
	"encoding/json"
	"net/http"

	"moviereview/app/metrics"
	"moviereview/app/pubkey"
	"moviereview/app/runtime"
)

// LedgerController handles transaction submission and raw account reads
type LedgerController struct {
	runtime   *runtime.Runtime
	programID pubkey.PublicKey
}

// NewLedgerController creates a new LedgerController
func NewLedgerController(rt *runtime.Runtime, programID pubkey.PublicKey) *LedgerController {
	return &LedgerController{runtime: rt, programID: programID}
}

type submitResponse struct {
	Signature runtime.Signature `json:"signature"`
	Slot      uint64            `json:"slot"`
	Logs      []string          `json:"logs"`
}

// Submit executes a signed transaction
func (lc *LedgerController) Submit(w http.ResponseWriter, r *http.Request) {
	var tx runtime.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		sendBadRequest(w, "Invalid transaction: "+err.Error())
		return
	}

	receipt, err := lc.runtime.Submit(r.Context(), &tx)
	metrics.RecordTransaction(err)
	if err != nil {
		var logs []string
		if receipt != nil {
			logs = receipt.Logs
		}
		sendError(w, err, logs)
		return
	}
	sendJSON(w, http.StatusOK, submitResponse{
		Signature: receipt.Signature,
		Slot:      receipt.Slot,
		Logs:      receipt.Logs,
	})
}

type airdropRequest struct {
	Address  pubkey.PublicKey `json:"address"`
	Lamports uint64           `json:"lamports"`
}

// Airdrop credits lamports from the local faucet
func (lc *LedgerController) Airdrop(w http.ResponseWriter, r *http.Request) {
	var req airdropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendBadRequest(w, "Invalid airdrop request: "+err.Error())
		return
	}
	if req.Address.IsZero() || req.Lamports == 0 {
		sendBadRequest(w, "address and lamports are required")
		return
	}
	if err := lc.runtime.Airdrop(r.Context(), req.Address, req.Lamports); err != nil {
		sendError(w, err, nil)
		return
	}
	account, err := lc.runtime.Account(r.Context(), req.Address)
	if err != nil {
		sendError(w, err, nil)
		return
	}
	sendJSON(w, http.StatusOK, account)
}

type statusResponse struct {
	runtime.Status
	ProgramID pubkey.PublicKey `json:"programId"`
}

// Status reports the ledger head
func (lc *LedgerController) Status(w http.ResponseWriter, r *http.Request) {
	st, err := lc.runtime.Status(r.Context())
	if err != nil {
		sendError(w, err, nil)
		return
	}
	sendJSON(w, http.StatusOK, statusResponse{Status: st, ProgramID: lc.programID})
}

// Account returns one raw account
func (lc *LedgerController) Account(w http.ResponseWriter, r *http.Request) {
	address, err := addressVar(r)
	if err != nil {
		sendBadRequest(w, err.Error())
		return
	}
	account, err := lc.runtime.Account(r.Context(), address)
	if err != nil {
		sendError(w, err, nil)
		return
	}
	sendJSON(w, http.StatusOK, account)
}
