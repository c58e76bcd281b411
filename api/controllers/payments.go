package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quansahdev/datamart-backend/api/responses"
	"github.com/quansahdev/datamart-backend/internal/payments"
	"github.com/quansahdev/datamart-backend/pkg/logger"
)

// VerifyPayment is the client-triggered settlement path: the buyer's
// browser lands back from the gateway and asks us to reconcile.
func VerifyPayment(paymentsSvc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference := chi.URLParam(r, "reference")
		txn, err := paymentsSvc.Verify(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTransactionView(txn))
	}
}
