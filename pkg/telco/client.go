package telco

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/quansahdev/datamart-backend/pkg/config"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/logger"
)

var (
	errBaseURLRequired = errors.New("telco base url is required")
	errLoggerRequired  = errors.New("telco logger is required")
)

// Provider delivers a single data bundle to one recipient. Implementations
// must be safe for concurrent use.
type Provider interface {
	SendBundle(ctx context.Context, params SendBundleParams) (*SendBundleResult, error)
}

// SendBundleParams identifies one bundle delivery.
type SendBundleParams struct {
	RecipientPhone string
	Network        enums.Network
	VolumeMB       int
	Reference      string
}

// SendBundleResult is the provider's acknowledgement for one recipient.
type SendBundleResult struct {
	ProviderRef string `json:"provider_ref"`
	Status      string `json:"status"`
	Detail      string `json:"detail"`
}

// Delivery status values reported by the provider.
const (
	StatusDelivered  = "delivered"
	StatusProcessing = "processing"
	StatusFailed     = "failed"
)

// Client is the HTTP implementation of Provider against the upstream
// bundle aggregator.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logger.Logger
}

func NewClient(cfg config.TelcoConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		logger:     logg,
	}, nil
}

func (c *Client) SendBundle(ctx context.Context, params SendBundleParams) (*SendBundleResult, error) {
	if params.RecipientPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient phone required")
	}
	if !params.Network.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown network")
	}

	ctx = c.logger.WithFields(ctx, map[string]any{
		"recipient": params.RecipientPhone,
		"network":   params.Network.String(),
		"reference": params.Reference,
	})

	body := map[string]any{
		"recipient": params.RecipientPhone,
		"network":   params.Network.String(),
		"volume_mb": params.VolumeMB,
		"reference": params.Reference,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode bundle request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bundles/send", bytes.NewReader(raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build bundle request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error(ctx, "bundle delivery call failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call bundle provider")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read bundle response")
	}
	if resp.StatusCode >= 400 {
		c.logger.Error(ctx, "bundle delivery rejected",
			fmt.Errorf("provider returned %d", resp.StatusCode))
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("bundle provider returned %d", resp.StatusCode))
	}

	var result SendBundleResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode bundle response")
	}
	if result.Status == "" {
		result.Status = StatusProcessing
	}

	c.logger.Info(ctx, "bundle delivery dispatched")
	return &result, nil
}
