package bridge

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/zpay32"

	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

// Offline decodes invoices locally with zpay32 and reports every other
// bridge capability as unsupported. It lets the classifier run without a
// bridge process.
type Offline struct{}

// Compile-time interface check
var _ Bridge = Offline{}

// paramsForInvoice picks the network from the invoice's human readable
// part. Longer prefixes are checked first since lnbcrt starts with lnbc and
// lntbs starts with lntb.
func paramsForInvoice(invoice string) (*chaincfg.Params, bool) {
	lower := strings.ToLower(invoice)
	switch {
	case strings.HasPrefix(lower, "lnbcrt"):
		return &chaincfg.RegressionNetParams, true
	case strings.HasPrefix(lower, "lntbs"):
		return &chaincfg.SigNetParams, true
	case strings.HasPrefix(lower, "lntb"):
		return &chaincfg.TestNet3Params, true
	case strings.HasPrefix(lower, "lnbc"):
		return &chaincfg.MainNetParams, true
	default:
		return nil, false
	}
}

// DecodeInvoice decodes a BOLT11 invoice without contacting a federation.
// The fee is left unset since it depends on the federation.
func (Offline) DecodeInvoice(_ context.Context, invoice, _ string) (*Invoice, error) {
	params, ok := paramsForInvoice(invoice)
	if !ok {
		return nil, &Error{Method: MethodDecodeInvoice, Message: "Unknown invoice network"}
	}

	decoded, err := zpay32.Decode(invoice, params)
	if err != nil {
		return nil, &Error{Method: MethodDecodeInvoice, Message: "Invalid invoice: " + err.Error()}
	}
	if decoded.MilliSat == nil {
		return nil, &Error{Method: MethodDecodeInvoice, Message: MissingAmountMessage}
	}

	out := &Invoice{
		Invoice: invoice,
		Amount:  uint64(*decoded.MilliSat),
	}
	if decoded.PaymentHash != nil {
		out.PaymentHash = hex.EncodeToString(decoded.PaymentHash[:])
	}
	if decoded.Description != nil {
		out.Description = *decoded.Description
	}
	return out, nil
}

// ValidateEcash always fails: ecash can only be checked by a federation.
func (Offline) ValidateEcash(context.Context, string) (*EcashInfo, error) {
	return nil, fedierr.Wrap(fedierr.ErrNotSupported, "ecash validation needs a running bridge")
}

// MatrixUserProfile always fails: profiles live on the chat server.
func (Offline) MatrixUserProfile(context.Context, string) (*MatrixUserProfile, error) {
	return nil, fedierr.Wrap(fedierr.ErrNotSupported, "profile lookup needs a running bridge")
}
