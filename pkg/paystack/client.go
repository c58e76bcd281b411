package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/quansahdev/datamart-backend/pkg/config"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/logger"
)

var (
	errSecretKeyRequired = errors.New("paystack secret key is required")
	errLoggerRequired    = errors.New("paystack logger is required")
)

// Client wraps the Paystack REST API with centralized auth, logging and
// error mapping. Only the charge initialize/verify surface is exposed.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	secretKey     string
	webhookSecret string
	callbackURL   string
	logger        *logger.Logger
}

// NewClient initializes the Paystack wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PaystackConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, errSecretKeyRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       baseURL,
		secretKey:     secretKey,
		webhookSecret: cfg.WebhookSigningSecret(),
		callbackURL:   strings.TrimSpace(cfg.CallbackURL),
		logger:        logg,
	}

	logg.Info(ctx, "paystack client initialized")
	return c, nil
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// CallbackURL reports the configured redirect target for charges.
func (c *Client) CallbackURL() string {
	if c == nil {
		return ""
	}
	return c.callbackURL
}

// Initialize creates a gateway charge. The transaction reference is passed
// through as Paystack's own reference, so retrying with the same reference
// can never create a second charge.
func (c *Client) Initialize(ctx context.Context, params InitializeParams) (*Authorization, error) {
	if params.Reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge reference required")
	}
	if params.AmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}

	body := params.toRequestBody(c.callbackURL)
	c.log(ctx, "request", "initialize", map[string]any{
		"reference": params.Reference,
		"amount":    params.AmountMinor,
	})

	var resp struct {
		Status  bool          `json:"status"`
		Message string        `json:"message"`
		Data    Authorization `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &resp); err != nil {
		c.log(ctx, "error", "initialize", map[string]any{"error": err.Error()})
		return nil, err
	}
	if !resp.Status {
		err := pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("paystack initialize rejected: %s", resp.Message))
		c.log(ctx, "error", "initialize", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "initialize", map[string]any{
		"reference":   params.Reference,
		"access_code": resp.Data.AccessCode,
	})
	return &resp.Data, nil
}

// Verify fetches the authoritative charge state for a reference.
func (c *Client) Verify(ctx context.Context, ref string) (*VerifyData, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge reference required")
	}

	c.log(ctx, "request", "verify", map[string]any{"reference": ref})

	var resp struct {
		Status  bool       `json:"status"`
		Message string     `json:"message"`
		Data    VerifyData `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+ref, nil, &resp); err != nil {
		c.log(ctx, "error", "verify", map[string]any{"error": err.Error()})
		return nil, err
	}
	if !resp.Status {
		err := pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("paystack verify rejected: %s", resp.Message))
		c.log(ctx, "error", "verify", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "verify", map[string]any{
		"reference": resp.Data.Reference,
		"status":    resp.Data.Status,
	})
	return &resp.Data, nil
}

// ValidateSignature checks the x-paystack-signature header against the raw
// webhook body. Paystack signs with HMAC-SHA512 over the payload.
func (c *Client) ValidateSignature(payload []byte, header string) bool {
	if c == nil || header == "" || c.webhookSecret == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode paystack request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build paystack request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call paystack")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read paystack response")
	}

	if resp.StatusCode >= 400 {
		return pkgerrors.New(domainCodeForStatus(resp.StatusCode),
			fmt.Sprintf("paystack %s %s returned %d", method, path, resp.StatusCode))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode paystack response")
		}
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("paystack %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("paystack %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"secret", "token", "email", "authorization"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
