package output

import (
	"fmt"
	"strconv"

	"github.com/lightningnetwork/lnd/lnwire"

	"github.com/fedibtc/fedicore/internal/parser"
)

// RenderResult writes a classification result. JSON output is the
// {"type", "data"} envelope; text output is one field per line.
func RenderResult(f *Formatter, r parser.Result) error {
	if f.IsJSON() {
		return writeJSON(f.Writer(), parser.ToEnvelope(r))
	}
	return writeFields(f.Writer(), ResultFields(r))
}

// FormatMsats renders a millisatoshi amount as sats, keeping the msat
// value when it is not a whole number of sats.
func FormatMsats(msats uint64) string {
	m := lnwire.MilliSatoshi(msats)
	if msats%1000 == 0 {
		return fmt.Sprintf("%d sats", int64(m.ToSatoshis()))
	}
	return fmt.Sprintf("%d sats (%v)", int64(m.ToSatoshis()), m)
}

// ResultFields lists the fields shown for r in text output. Empty optional
// values are left out.
func ResultFields(r parser.Result) []Field {
	if r == nil {
		r = parser.Unknown{}
	}

	fields := []Field{{"Type", string(r.Type())}}
	add := func(name, value string) {
		if value != "" {
			fields = append(fields, Field{name, value})
		}
	}

	switch v := r.(type) {
	case parser.Bolt11:
		add("Invoice", v.Invoice.Invoice)
		add("Amount", FormatMsats(v.Amount))
		add("Description", v.Description)
		add("Payment hash", v.PaymentHash)
		if v.Fee != nil {
			add("Fedi fee", FormatMsats(v.Fee.FediFee))
			add("Network fee", FormatMsats(v.Fee.NetworkFee))
			add("Federation fee", FormatMsats(v.Fee.FederationFee))
		}
		add("Fallback address", v.FallbackAddress)

	case parser.LnurlPay:
		add("Domain", v.Domain)
		add("Callback", v.Callback)
		add("Min sendable", FormatMsats(uint64(max(v.MinSendable, 0))))
		add("Max sendable", FormatMsats(uint64(max(v.MaxSendable, 0))))
		add("Description", v.Description)
		add("Identifier", v.Identifier)
		if v.CommentAllowed > 0 {
			add("Comment length", strconv.Itoa(v.CommentAllowed))
		}

	case parser.LnurlWithdraw:
		add("Domain", v.Domain)
		add("Callback", v.Callback)
		add("Min withdrawable", FormatMsats(uint64(max(v.MinWithdrawable, 0))))
		add("Max withdrawable", FormatMsats(uint64(max(v.MaxWithdrawable, 0))))
		add("Description", v.DefaultDescription)

	case parser.LnurlAuth:
		add("Domain", v.Domain)
		add("Action", v.Action)
		add("URL", v.URL)

	case parser.BitcoinAddress:
		add("Address", v.Address)

	case parser.Bip21:
		add("Address", v.Address)
		if v.Amount > 0 {
			add("Amount", v.Amount.String())
		}
		add("Label", v.Label)
		add("Message", v.Message)

	case parser.FedimintEcash:
		add("Amount", FormatMsats(v.Amount))
		add("Federation", v.FederationID)
		add("Token", v.Token)

	case parser.FediChatUser:
		add("User", v.ID)
		add("Display name", v.DisplayName)

	case parser.Unknown:
		add("Message", v.Message)

	case parser.OfflineError:
		add("Message", v.Message)

	default:
		add("Value", parser.PrimaryValue(r))
	}
	return fields
}
