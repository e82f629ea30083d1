package parser

// Translator maps a message key to user-facing text.
type Translator func(key string) string

// Message keys used in Unknown and OfflineError results.
const (
	KeyInvoiceMissingAmount = "feature.parser.lightning-invoice-missing-amount"
	KeyUnsupportedLnurl     = "feature.parser.unsupported-lnurl"
	KeyRequiresInternet     = "errors.actions-require-internet"
)

//nolint:gochecknoglobals // message catalog
var englishMessages = map[string]string{
	KeyInvoiceMissingAmount: "Lightning invoices without an amount are not supported.",
	KeyUnsupportedLnurl:     "This type of LNURL is not supported.",
	KeyRequiresInternet:     "This action requires an internet connection.",
}

// DefaultTranslator returns English text for known keys and the key itself
// otherwise.
func DefaultTranslator(key string) string {
	if msg, ok := englishMessages[key]; ok {
		return msg
	}
	return key
}
