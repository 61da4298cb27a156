package controllers

import (
	"net/http"

	"moviereview/app/models"
	"moviereview/app/program"
	"moviereview/app/repositories"
	"moviereview/app/runtime"
	"moviereview/app/token"
)

// ReviewController serves decoded program accounts
type ReviewController struct {
	runtime   *runtime.Runtime
	processor *program.Processor
}

// NewReviewController creates a new ReviewController
func NewReviewController(rt *runtime.Runtime, processor *program.Processor) *ReviewController {
	return &ReviewController{runtime: rt, processor: processor}
}

type reviewResponse struct {
	*models.MovieReview
	Comments uint64 `json:"commentCount"`
}

// Show returns a review with its comment counter
func (rc *ReviewController) Show(w http.ResponseWriter, r *http.Request) {
	address, err := addressVar(r)
	if err != nil {
		sendBadRequest(w, err.Error())
		return
	}
	var resp reviewResponse
	err = rc.runtime.View(r.Context(), func(accounts repositories.AccountReader) error {
		review, err := rc.processor.Reviews().GetReview(accounts, address)
		if err != nil {
			return err
		}
		resp.MovieReview = review
		resp.Comments, err = rc.processor.Comments().Counter(accounts, address)
		return err
	})
	if err != nil {
		sendError(w, err, nil)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

// Comments lists the comments of a review in count order
func (rc *ReviewController) Comments(w http.ResponseWriter, r *http.Request) {
	address, err := addressVar(r)
	if err != nil {
		sendBadRequest(w, err.Error())
		return
	}
	var comments []*models.MovieComment
	err = rc.runtime.View(r.Context(), func(accounts repositories.AccountReader) error {
		var err error
		comments, err = rc.processor.Comments().Comments(accounts, address)
		return err
	})
	if err != nil {
		sendError(w, err, nil)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"review":   address,
		"comments": comments,
	})
}

// TokenAccount returns a decoded token account
func (rc *ReviewController) TokenAccount(w http.ResponseWriter, r *http.Request) {
	address, err := addressVar(r)
	if err != nil {
		sendBadRequest(w, err.Error())
		return
	}
	var account *token.Account
	err = rc.runtime.View(r.Context(), func(accounts repositories.AccountReader) error {
		var err error
		account, err = token.LoadAccount(accounts, address)
		return err
	})
	if err != nil {
		sendError(w, err, nil)
		return
	}
	sendJSON(w, http.StatusOK, account)
}
