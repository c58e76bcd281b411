package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/quansahdev/datamart-backend/api/responses"
	"github.com/quansahdev/datamart-backend/internal/payments"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/logger"
	"github.com/quansahdev/datamart-backend/pkg/paystack"
)

const (
	signatureHeader = "X-Paystack-Signature"
	maxBodyBytes    = 1 << 20
)

type signatureValidator interface {
	ValidateSignature(payload []byte, header string) bool
}

// Paystack receives gateway events. The request is acknowledged as soon as
// the signature checks out; reconciliation happens off the request
// goroutine so a slow settle never makes the gateway re-deliver.
func Paystack(paymentsSvc payments.Service, validator signatureValidator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		if !validator.ValidateSignature(payload, r.Header.Get(signatureHeader)) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		var event paystack.WebhookEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook event"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "received"})

		bgCtx := context.WithoutCancel(ctx)
		go func() {
			if err := paymentsSvc.HandleWebhook(bgCtx, event); err != nil {
				logg.Error(bgCtx, "webhook processing failed", err)
			}
		}()
	}
}
