package fulfillment

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/logger"
	"github.com/quansahdev/datamart-backend/pkg/metrics"
	"github.com/quansahdev/datamart-backend/pkg/telco"
)

// Outcome reports how delivery went for one transaction. Payment is
// already settled when a dispatcher runs; a failed outcome never reverts
// it.
type Outcome struct {
	Status     enums.DeliveryStatus
	Credential *models.ResultCheckerCredential
	Detail     string
}

// Dispatcher hands a paid transaction to the delivery side.
type Dispatcher interface {
	Dispatch(ctx context.Context, txn *models.Transaction) (*Outcome, error)
}

type dispatcher struct {
	repo    Repository
	telco   telco.Provider
	logger  *logger.Logger
	metrics *metrics.PaymentMetrics
}

// NewDispatcher builds the default dispatcher for bundles and checkers.
func NewDispatcher(repo Repository, provider telco.Provider, logg *logger.Logger, pm *metrics.PaymentMetrics) (Dispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("fulfillment repository required")
	}
	if provider == nil {
		return nil, fmt.Errorf("telco provider required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &dispatcher{repo: repo, telco: provider, logger: logg, metrics: pm}, nil
}

func (d *dispatcher) Dispatch(ctx context.Context, txn *models.Transaction) (*Outcome, error) {
	if txn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	ctx = d.logger.WithReference(ctx, txn.Reference)

	var outcome *Outcome
	var err error
	switch txn.Type {
	case enums.TransactionTypeResultChecker:
		outcome, err = d.dispatchResultChecker(ctx, txn)
	case enums.TransactionTypeDataBundle:
		outcome, err = d.dispatchDataBundle(ctx, txn)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("transaction type %s is not dispatchable", txn.Type))
	}
	if err != nil {
		return nil, err
	}

	if dbErr := d.repo.UpdateTransactionDelivery(ctx, txn.ID, outcome.Status); dbErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, dbErr, "record delivery status")
	}
	d.metrics.IncFulfillment(outcome.Status.String())
	d.logger.Info(ctx, fmt.Sprintf("fulfillment %s", outcome.Status))
	return outcome, nil
}

// dispatchResultChecker claims one unsold credential; an empty pool
// synthesizes one from the reference so every paid transaction yields
// exactly one credential, replays included.
func (d *dispatcher) dispatchResultChecker(ctx context.Context, txn *models.Transaction) (*Outcome, error) {
	if existing, err := d.repo.FindCredentialByTransaction(ctx, txn.ID); err == nil {
		return &Outcome{Status: enums.DeliveryStatusDelivered, Credential: existing}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up claimed credential")
	}

	examType, examYear, err := d.examPool(ctx, txn)
	if err != nil {
		return nil, err
	}

	cred, err := d.repo.ClaimCredential(ctx, examType, examYear, txn.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim credential")
		}
		cred = synthesizeCredential(txn, examType, examYear)
		if createErr := d.repo.CreateCredential(ctx, cred); createErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create synthesized credential")
		}
		d.logger.Warn(ctx, "credential pool empty, synthesized one")
	}

	return &Outcome{Status: enums.DeliveryStatusDelivered, Credential: cred}, nil
}

func (d *dispatcher) examPool(ctx context.Context, txn *models.Transaction) (enums.ExamType, int, error) {
	if len(txn.Items) == 0 {
		return "", 0, pkgerrors.New(pkgerrors.CodeInternal, "result checker transaction has no items")
	}
	product, err := d.repo.FindProduct(ctx, txn.Items[0].ProductID)
	if err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product for credential pool")
	}
	if product.ExamType == nil || product.ExamYear == nil {
		return "", 0, pkgerrors.New(pkgerrors.CodeInternal, "product has no exam pool configured")
	}
	return *product.ExamType, *product.ExamYear, nil
}

// dispatchDataBundle delivers to every recipient and aggregates the item
// results: any failure with at least one success is partial (processing),
// all failures fail the delivery, in-flight acknowledgements stay
// processing.
func (d *dispatcher) dispatchDataBundle(ctx context.Context, txn *models.Transaction) (*Outcome, error) {
	if len(txn.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "data bundle transaction has no items")
	}

	product, err := d.repo.FindProduct(ctx, txn.Items[0].ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product for delivery")
	}
	if product.Network == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "data bundle product has no network")
	}
	volumeMB := parseVolumeMB(product.Volume)

	delivered, processing, failed := 0, 0, 0
	for _, item := range txn.Items {
		status, detail := d.deliverOne(ctx, txn.Reference, item, *product.Network, volumeMB)
		switch status {
		case enums.DeliveryStatusDelivered:
			delivered++
		case enums.DeliveryStatusFailed:
			failed++
		default:
			processing++
		}
		if err := d.repo.UpdateOrderItem(ctx, item.ID, status, detail); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record item delivery")
		}
	}

	outcome := &Outcome{}
	switch {
	case failed == len(txn.Items):
		outcome.Status = enums.DeliveryStatusFailed
		outcome.Detail = "all recipients failed"
	case delivered == len(txn.Items):
		outcome.Status = enums.DeliveryStatusDelivered
	default:
		outcome.Status = enums.DeliveryStatusProcessing
		outcome.Detail = fmt.Sprintf("%d delivered, %d processing, %d failed", delivered, processing, failed)
	}
	return outcome, nil
}

func (d *dispatcher) deliverOne(ctx context.Context, reference string, item models.OrderItem, network enums.Network, volumeMB int) (enums.DeliveryStatus, *string) {
	result, err := d.telco.SendBundle(ctx, telco.SendBundleParams{
		RecipientPhone: item.RecipientPhone,
		Network:        network,
		VolumeMB:       volumeMB,
		Reference:      fmt.Sprintf("%s-%s", reference, item.ID),
	})
	if err != nil {
		detail := err.Error()
		return enums.DeliveryStatusFailed, &detail
	}

	switch result.Status {
	case telco.StatusDelivered:
		return enums.DeliveryStatusDelivered, nil
	case telco.StatusFailed:
		detail := result.Detail
		return enums.DeliveryStatusFailed, &detail
	default:
		return enums.DeliveryStatusProcessing, nil
	}
}

const syntheticAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// synthesizeCredential derives a serial/pin pair from the transaction
// reference. The derivation is deterministic, so a replayed settlement
// regenerates the identical credential instead of minting a second one.
func synthesizeCredential(txn *models.Transaction, examType enums.ExamType, examYear int) *models.ResultCheckerCredential {
	sum := sha256.Sum256([]byte(txn.Reference))

	serial := make([]byte, 10)
	for i := range serial {
		serial[i] = syntheticAlphabet[int(sum[i])%len(syntheticAlphabet)]
	}
	pin := binary.BigEndian.Uint64(sum[10:18]) % 1_0000_0000_0000

	now := txn.UpdatedAt
	txnID := txn.ID
	return &models.ResultCheckerCredential{
		ID:            uuid.New(),
		ExamType:      examType,
		ExamYear:      examYear,
		Serial:        fmt.Sprintf("%s-%s", examType.String(), string(serial)),
		Pin:           fmt.Sprintf("%012d", pin),
		Sold:          true,
		TransactionID: &txnID,
		SoldAt:        &now,
	}
}

func parseVolumeMB(volume *string) int {
	if volume == nil {
		return 0
	}
	var gb float64
	if _, err := fmt.Sscanf(*volume, "%fGB", &gb); err == nil {
		return int(gb * 1024)
	}
	var mb int
	if _, err := fmt.Sscanf(*volume, "%dMB", &mb); err == nil {
		return mb
	}
	return 0
}
