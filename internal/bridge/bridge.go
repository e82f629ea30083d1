// Package bridge defines the subset of the Fedimint bridge used by the input
// classifier and provides a websocket RPC client plus an offline fallback.
package bridge

import (
	"context"

	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

// RPC method names understood by the bridge.
const (
	MethodDecodeInvoice     = "decodeInvoice"
	MethodValidateEcash     = "validateEcash"
	MethodMatrixUserProfile = "matrixUserProfile"
)

// MissingAmountMessage is the text the bridge reports for an amountless
// BOLT11 invoice.
const MissingAmountMessage = "Invoice missing amount"

// InvoiceFee is the fee breakdown the bridge attaches to a decoded invoice.
// All values are millisatoshis.
type InvoiceFee struct {
	FediFee       uint64 `json:"fediFee"`
	NetworkFee    uint64 `json:"networkFee"`
	FederationFee uint64 `json:"federationFee"`
}

// Invoice is a decoded BOLT11 invoice.
type Invoice struct {
	Invoice     string      `json:"invoice"`
	PaymentHash string      `json:"paymentHash"`
	Amount      uint64      `json:"amount"` // msats
	Fee         *InvoiceFee `json:"fee"`
	Description string      `json:"description"`
}

// EcashInfo describes a validated Fedimint ecash note bundle.
type EcashInfo struct {
	Amount       uint64 `json:"amount"` // msats
	FederationID string `json:"federation_id,omitempty"`
}

// MatrixUserProfile is the public profile of a Matrix user.
type MatrixUserProfile struct {
	DisplayName string `json:"displayname"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// InvoiceDecoder decodes BOLT11 invoices. federationID may be empty.
type InvoiceDecoder interface {
	DecodeInvoice(ctx context.Context, invoice, federationID string) (*Invoice, error)
}

// EcashValidator validates serialized Fedimint ecash.
type EcashValidator interface {
	ValidateEcash(ctx context.Context, ecash string) (*EcashInfo, error)
}

// ProfileFetcher looks up Matrix user profiles.
type ProfileFetcher interface {
	MatrixUserProfile(ctx context.Context, userID string) (*MatrixUserProfile, error)
}

// Bridge is everything the classifier needs from the Fedimint bridge.
type Bridge interface {
	InvoiceDecoder
	EcashValidator
	ProfileFetcher
}

// Error is a failure reported by the bridge itself. Error returns the
// bridge's message unchanged so callers can match on its text.
type Error struct {
	Method  string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match ErrBridge.
func (e *Error) Unwrap() error {
	return fedierr.ErrBridge
}
