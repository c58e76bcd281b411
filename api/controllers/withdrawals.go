package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/api/middleware"
	"github.com/quansahdev/datamart-backend/api/responses"
	"github.com/quansahdev/datamart-backend/api/validators"
	"github.com/quansahdev/datamart-backend/internal/withdrawals"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/logger"
	"github.com/quansahdev/datamart-backend/pkg/money"
	"github.com/quansahdev/datamart-backend/pkg/pagination"
)

type createWithdrawalRequest struct {
	Amount        string `json:"amount" validate:"required"`
	AccountName   string `json:"account_name" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required"`
	Channel       string `json:"channel,omitempty" validate:"omitempty,oneof=momo bank"`
}

// CreateWithdrawal opens a payout request against the caller's profit
// wallet.
func CreateWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createWithdrawalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := money.Parse(req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		principal, _ := middleware.PrincipalFrom(r.Context())
		created, err := svc.Request(r.Context(), withdrawals.RequestInput{
			UserID:        principal.UserID,
			Amount:        amount,
			AccountName:   req.AccountName,
			AccountNumber: req.AccountNumber,
			Channel:       req.Channel,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newWithdrawalView(created))
	}
}

// ListWithdrawals returns the caller's own payout requests.
func ListWithdrawals(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.PrincipalFrom(r.Context())
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListByUser(r.Context(), principal.UserID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]withdrawalView, 0, len(list))
		for i := range list {
			views = append(views, newWithdrawalView(&list[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

// AdminListPendingWithdrawals is the review queue, oldest first.
func AdminListPendingWithdrawals(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListPending(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]withdrawalView, 0, len(list))
		for i := range list {
			views = append(views, newWithdrawalView(&list[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

// AdminApproveWithdrawal moves pending→approved.
func AdminApproveWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, principal, err := withdrawalTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.Approve(r.Context(), id, principal.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWithdrawalView(updated))
	}
}

type reviewReasonRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// AdminRejectWithdrawal moves pending→rejected; no balance is touched.
func AdminRejectWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, principal, err := withdrawalTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req reviewReasonRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.Reject(r.Context(), id, principal.UserID, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWithdrawalView(updated))
	}
}

type payWithdrawalRequest struct {
	TransferReference string `json:"transfer_reference" validate:"required"`
}

// AdminPayWithdrawal finalizes an approved payout and debits the profit
// wallet.
func AdminPayWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, err := withdrawalTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req payWithdrawalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.MarkPaid(r.Context(), id, req.TransferReference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWithdrawalView(updated))
	}
}

// AdminFailWithdrawal records an approved payout that bounced externally.
func AdminFailWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, err := withdrawalTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req reviewReasonRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.MarkFailed(r.Context(), id, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWithdrawalView(updated))
	}
}

func withdrawalTarget(r *http.Request) (uuid.UUID, middleware.Principal, error) {
	principal, _ := middleware.PrincipalFrom(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "withdrawalId"))
	if err != nil {
		return uuid.Nil, principal, pkgerrors.New(pkgerrors.CodeValidation, "invalid withdrawal id")
	}
	return id, principal, nil
}
