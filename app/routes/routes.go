package routes

import (
	"moviereview/app/controllers"
	"moviereview/app/metrics"
	"moviereview/app/middleware"
	"moviereview/app/program"
	"moviereview/app/pubkey"
	"moviereview/app/runtime"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// SetupRoutes defines the ledger API and returns a router.
func SetupRoutes(rt *runtime.Runtime, processor *program.Processor, programID pubkey.PublicKey, log logrus.FieldLogger) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recoverer(log))
	router.Use(metrics.InstrumentHandler)
	router.Use(middleware.ContentTypeJSON)

	ledgerController := controllers.NewLedgerController(rt, programID)
	reviewController := controllers.NewReviewController(rt, processor)

	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", ledgerController.Status).Methods("GET")
	api.HandleFunc("/transactions", ledgerController.Submit).Methods("POST")
	api.HandleFunc("/airdrop", ledgerController.Airdrop).Methods("POST")
	api.HandleFunc("/accounts/{address}", ledgerController.Account).Methods("GET")
	api.HandleFunc("/reviews/{address}", reviewController.Show).Methods("GET")
	api.HandleFunc("/reviews/{address}/comments", reviewController.Comments).Methods("GET")
	api.HandleFunc("/token-accounts/{address}", reviewController.TokenAccount).Methods("GET")

	return router
}
