package payos

import (
	"context"
	"encoding/json"
	"fmt"

	payossdk "github.com/payOSHQ/payos-lib-golang"
)

// Client is the contract the order workflow expects from the payment
// gateway: create a hosted checkout link, and verify inbound webhooks.
// It is constructed once in main and injected into the handlers.
type Client interface {
	CreatePaymentLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)
	VerifyWebhook(payload WebhookPayload) (*WebhookData, error)
}

// CheckoutItem is one human-readable line on the hosted checkout page.
type CheckoutItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// CheckoutRequest describes the payment link to create. Amount is in VND,
// which PayOS expects as a whole number.
type CheckoutRequest struct {
	OrderCode   int64          `json:"orderCode"`
	Amount      int64          `json:"amount"`
	Description string         `json:"description"`
	ReturnURL   string         `json:"returnUrl"`
	CancelURL   string         `json:"cancelUrl"`
	Items       []CheckoutItem `json:"items"`
}

// CheckoutLink is the subset of the create response the frontend needs.
type CheckoutLink struct {
	CheckoutURL   string `json:"checkoutUrl"`
	QRCode        string `json:"qrCode"`
	PaymentLinkID string `json:"paymentLinkId"`
}

// WebhookPayload is the raw callback body. Data stays unparsed until the
// signature over it has been checked. The outer envelope fields are NOT
// covered by the signature, so nothing may be decided from them.
type WebhookPayload struct {
	Code      string          `json:"code"`
	Desc      string          `json:"desc"`
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`
}

// WebhookData is the verified payload content.
type WebhookData struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Reference   string `json:"reference"`
	Code        string `json:"code"`
	Desc        string `json:"desc"`
}

// Paid reports whether the verified payment data signals a successful
// payment. Only this signed content decides the order transition; the
// unsigned envelope is ignored.
func (d WebhookData) Paid() bool {
	return d.Code == "00"
}

// SDKClient talks to the PayOS merchant API through the official SDK,
// which owns request signing and webhook checksum verification.
type SDKClient struct{}

// NewClient registers the merchant credentials with the SDK and returns
// the gateway client.
func NewClient(clientID, apiKey, checksumKey string) (*SDKClient, error) {
	if err := payossdk.Key(clientID, apiKey, checksumKey); err != nil {
		return nil, fmt.Errorf("payos: configuring merchant keys: %w", err)
	}
	return &SDKClient{}, nil
}

// CreatePaymentLink requests a hosted checkout page for the given order.
// The SDK call carries no context; ctx is accepted for the interface.
func (c *SDKClient) CreatePaymentLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	items := make([]payossdk.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, payossdk.Item{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    int(it.Price),
		})
	}

	data, err := payossdk.CreatePaymentLink(payossdk.CheckoutRequestType{
		OrderCode:   req.OrderCode,
		Amount:      int(req.Amount),
		Description: req.Description,
		ReturnUrl:   req.ReturnURL,
		CancelUrl:   req.CancelURL,
		Items:       items,
	})
	if err != nil {
		return nil, fmt.Errorf("payos: create payment link: %w", err)
	}

	return &CheckoutLink{
		CheckoutURL:   data.CheckoutUrl,
		QRCode:        data.QRCode,
		PaymentLinkID: data.PaymentLinkId,
	}, nil
}

// VerifyWebhook hands the callback to the SDK, which recomputes the HMAC
// over the data object and rejects tampered payloads.
func (c *SDKClient) VerifyWebhook(payload WebhookPayload) (*WebhookData, error) {
	var data payossdk.WebhookDataType
	if err := json.Unmarshal(payload.Data, &data); err != nil {
		return nil, fmt.Errorf("payos: decoding webhook data: %w", err)
	}

	verified, err := payossdk.VerifyPaymentWebhookData(payossdk.WebhookType{
		Code:      payload.Code,
		Desc:      payload.Desc,
		Success:   payload.Success,
		Data:      &data,
		Signature: payload.Signature,
	})
	if err != nil {
		return nil, fmt.Errorf("payos: webhook verification: %w", err)
	}

	return &WebhookData{
		OrderCode:   verified.OrderCode,
		Amount:      int64(verified.Amount),
		Description: verified.Description,
		Reference:   verified.Reference,
		Code:        verified.Code,
		Desc:        verified.Desc,
	}, nil
}
