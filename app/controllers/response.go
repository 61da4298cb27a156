package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"moviereview/app/pubkey"
	"moviereview/app/services"

	"github.com/gorilla/mux"
)

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Error string   `json:"error"`
	Code  int      `json:"code,omitempty"`
	Name  string   `json:"name,omitempty"`
	Logs  []string `json:"logs,omitempty"`
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, err error, logs []string) {
	resp := errorResponse{Error: err.Error(), Logs: logs}
	var programErr *services.Error
	if errors.As(err, &programErr) {
		resp.Code = programErr.Code
		resp.Name = programErr.Name
	}
	sendJSON(w, services.HTTPStatus(err), resp)
}

func sendBadRequest(w http.ResponseWriter, message string) {
	sendJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

// addressVar parses the {address} route variable.
func addressVar(r *http.Request) (pubkey.PublicKey, error) {
	return pubkey.Parse(mux.Vars(r)["address"])
}
