package output

import (
	"io"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"

	"github.com/fedibtc/fedicore/internal/fediuri"
	"github.com/fedibtc/fedicore/internal/parser"
)

// QRConfig configures terminal QR rendering.
type QRConfig struct {
	Level      qr.Level
	QuietZone  int
	HalfBlocks bool

	// Force renders even when the writer is not a terminal.
	Force bool
}

// DefaultQRConfig returns the settings used by "parse --qr".
func DefaultQRConfig() QRConfig {
	return QRConfig{
		Level:      qr.M,
		QuietZone:  1,
		HalfBlocks: true,
	}
}

// CanRenderQR reports whether w is a terminal.
func CanRenderQR(w io.Writer) bool {
	return isTerminal(w)
}

// RenderQR draws data as a QR code. Nothing is written when w is not a
// terminal unless cfg.Force is set.
func RenderQR(w io.Writer, data string, cfg QRConfig) error {
	if data == "" || (!cfg.Force && !CanRenderQR(w)) {
		return nil
	}

	qrterminal.GenerateWithConfig(data, qrterminal.Config{
		Level:          cfg.Level,
		Writer:         w,
		QuietZone:      cfg.QuietZone,
		HalfBlocks:     cfg.HalfBlocks,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
	return nil
}

// QRPayload returns the string to encode for a result, or false when the
// result has nothing scannable. Bech32 payloads are upper-cased so the QR
// code can use alphanumeric mode.
func QRPayload(r parser.Result) (string, bool) {
	switch v := r.(type) {
	case parser.Bolt11:
		return "LIGHTNING:" + strings.ToUpper(v.Invoice.Invoice), true
	case parser.BitcoinAddress:
		return "bitcoin:" + v.Address, true
	case parser.Bip21:
		return "bitcoin:" + v.Address, true
	case parser.FedimintInvite:
		return strings.ToUpper(v.Invite), true
	case parser.FediChatUser:
		return fediuri.EncodeUser(v.ID), true
	case parser.FediChatRoom:
		return fediuri.EncodeRoom(v.ID), true
	case parser.CashuEcash, parser.FedimintEcash, parser.CommunityInvite, parser.Website, parser.LnurlAuth:
		value := parser.PrimaryValue(v)
		return value, value != ""
	default:
		return "", false
	}
}
