package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
)

type orderItemView struct {
	ID             uuid.UUID `json:"id"`
	RecipientPhone string    `json:"recipient_phone"`
	UnitPrice      string    `json:"unit_price"`
	Status         string    `json:"status"`
	Detail         *string   `json:"detail,omitempty"`
}

type transactionView struct {
	Reference      string          `json:"reference"`
	Type           string          `json:"type"`
	Amount         string          `json:"amount"`
	Status         string          `json:"status"`
	PaymentStatus  string          `json:"payment_status"`
	DeliveryStatus string          `json:"delivery_status"`
	PaymentMethod  string          `json:"payment_method"`
	IsBulkOrder    bool            `json:"is_bulk_order"`
	Items          []orderItemView `json:"items,omitempty"`
	FailureReason  *string         `json:"failure_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// transactionListView wraps one page of transactions plus the next cursor.
type transactionListView struct {
	Transactions []transactionView `json:"transactions"`
	NextCursor   string            `json:"next_cursor,omitempty"`
}

func newTransactionView(txn *models.Transaction) transactionView {
	view := transactionView{
		Reference:      txn.Reference,
		Type:           string(txn.Type),
		Amount:         txn.Amount.String(),
		Status:         string(txn.Status),
		PaymentStatus:  string(txn.PaymentStatus),
		DeliveryStatus: string(txn.DeliveryStatus),
		PaymentMethod:  string(txn.PaymentMethod),
		IsBulkOrder:    txn.IsBulkOrder,
		FailureReason:  txn.FailureReason,
		CreatedAt:      txn.CreatedAt,
	}
	for _, item := range txn.Items {
		view.Items = append(view.Items, orderItemView{
			ID:             item.ID,
			RecipientPhone: item.RecipientPhone,
			UnitPrice:      item.UnitPrice.String(),
			Status:         string(item.Status),
			Detail:         item.Detail,
		})
	}
	return view
}

type withdrawalView struct {
	ID                uuid.UUID `json:"id"`
	Amount            string    `json:"amount"`
	Status            string    `json:"status"`
	AccountName       string    `json:"account_name"`
	AccountNumber     string    `json:"account_number"`
	Channel           string    `json:"channel"`
	TransferReference *string   `json:"transfer_reference,omitempty"`
	Reason            *string   `json:"reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func newWithdrawalView(w *models.Withdrawal) withdrawalView {
	return withdrawalView{
		ID:                w.ID,
		Amount:            w.Amount.String(),
		Status:            string(w.Status),
		AccountName:       w.AccountName,
		AccountNumber:     w.AccountNumber,
		Channel:           w.Channel,
		TransferReference: w.TransferReference,
		Reason:            w.Reason,
		CreatedAt:         w.CreatedAt,
	}
}
