package paystack

import "strconv"

// InitializeParams describes a new gateway charge. Amounts are in minor
// units (pesewas), which is what Paystack expects on the wire.
type InitializeParams struct {
	AmountMinor int64
	Email       string
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

func (p InitializeParams) toRequestBody(defaultCallback string) map[string]any {
	callback := p.CallbackURL
	if callback == "" {
		callback = defaultCallback
	}
	body := map[string]any{
		"amount":    p.AmountMinor,
		"email":     p.Email,
		"reference": p.Reference,
		"currency":  "GHS",
	}
	if callback != "" {
		body["callback_url"] = callback
	}
	if len(p.Metadata) > 0 {
		body["metadata"] = p.Metadata
	}
	return body
}

// Authorization is the initialize response payload the caller redirects to.
type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyData is the authoritative charge state from the verify endpoint.
// Status is one of "success", "failed" or "abandoned".
type VerifyData struct {
	ID              int64  `json:"id"`
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	AmountMinor     int64  `json:"amount"`
	Channel         string `json:"channel"`
	GatewayResponse string `json:"gateway_response"`
	PaidAt          string `json:"paid_at"`
}

// ChargeRef returns the gateway's own charge identifier, the value worth
// persisting alongside the transaction. gateway_response is only a
// human-readable status message.
func (d VerifyData) ChargeRef() *string {
	if d.ID == 0 {
		return nil
	}
	ref := strconv.FormatInt(d.ID, 10)
	return &ref
}

// Charge status values returned by verify and webhook payloads.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// WebhookEvent is the envelope Paystack posts to the webhook endpoint.
type WebhookEvent struct {
	Event string     `json:"event"`
	Data  VerifyData `json:"data"`
}

// Webhook event names handled by the reconciler.
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)
