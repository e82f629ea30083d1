package parser

import (
	"github.com/btcsuite/btcd/btcutil"

	"github.com/fedibtc/fedicore/internal/bridge"
)

// DataType tags the kind of a classified input.
type DataType string

// Every DataType a Result can carry.
const (
	TypeBolt11               DataType = "bolt11"
	TypeBolt12               DataType = "bolt12"
	TypeLnurlPay             DataType = "lnurlp"
	TypeLnurlWithdraw        DataType = "lnurlw"
	TypeLnurlAuth            DataType = "lnurla"
	TypeBitcoinAddress       DataType = "bitcoin"
	TypeBip21                DataType = "bip21"
	TypeCashuEcash           DataType = "cashu:ecash"
	TypeFedimintEcash        DataType = "fedimint:ecash"
	TypeFedimintInvite       DataType = "fedimint:invite"
	TypeCommunityInvite      DataType = "community:invite"
	TypeFediChatUser         DataType = "fedi:user"
	TypeFediChatRoom         DataType = "fedi:room"
	TypeLegacyFediChatMember DataType = "fedi:member"
	TypeLegacyFediChatGroup  DataType = "fedi:group"
	TypeWebsite              DataType = "website"
	TypeUnknown              DataType = "unknown"
	TypeOfflineError         DataType = "offline"
)

// Result is the outcome of classifying one input. The set of
// implementations is closed: only the variant types in this package
// satisfy it, and each reports a distinct DataType.
type Result interface {
	Type() DataType
	isResult()
}

// Bolt11 is a decoded Lightning invoice. FallbackAddress is set when the
// invoice came from a BIP21 URI.
type Bolt11 struct {
	bridge.Invoice
	FallbackAddress string `json:"fallbackAddress,omitempty"`
}

// Bolt12 marks a BOLT12 offer. Offers are recognised but not decoded.
type Bolt12 struct{}

// LnurlPay holds LUD-06 pay request parameters. Amounts are msats.
type LnurlPay struct {
	Domain          string `json:"domain"`
	Callback        string `json:"callback"`
	MinSendable     int64  `json:"minSendable"`
	MaxSendable     int64  `json:"maxSendable"`
	Description     string `json:"description,omitempty"`
	LongDescription string `json:"longDescription,omitempty"`
	Thumbnail       string `json:"thumbnail,omitempty"`
	Identifier      string `json:"identifier,omitempty"`
	CommentAllowed  int    `json:"commentAllowed,omitempty"`
	Metadata        string `json:"metadata"`
}

// LnurlWithdraw holds LUD-03 withdraw request parameters. Amounts are msats.
type LnurlWithdraw struct {
	Domain             string `json:"domain"`
	Callback           string `json:"callback"`
	K1                 string `json:"k1"`
	MinWithdrawable    int64  `json:"minWithdrawable"`
	MaxWithdrawable    int64  `json:"maxWithdrawable"`
	DefaultDescription string `json:"defaultDescription,omitempty"`
}

// LnurlAuth holds LUD-04 login parameters.
type LnurlAuth struct {
	Domain string `json:"domain"`
	K1     string `json:"k1"`
	URL    string `json:"url"`
	Action string `json:"action,omitempty"`
}

// BitcoinAddress is a bare on-chain address.
type BitcoinAddress struct {
	Address string `json:"address"`
}

// Bip21 is a "bitcoin:" payment URI without a usable lightning invoice.
type Bip21 struct {
	Address string         `json:"address"`
	Amount  btcutil.Amount `json:"amount,omitempty"` // sats
	Label   string         `json:"label,omitempty"`
	Message string         `json:"message,omitempty"`
}

// CashuEcash is a Cashu token.
type CashuEcash struct {
	Token string `json:"token"`
}

// FedimintEcash is a Fedimint ecash bundle validated by the bridge.
type FedimintEcash struct {
	Token        string `json:"token"`
	Amount       uint64 `json:"amount"` // msats
	FederationID string `json:"federationId,omitempty"`
}

// FedimintInvite is a federation invite code.
type FedimintInvite struct {
	Invite string `json:"invite"`
}

// CommunityInvite is a Fedi community invite link.
type CommunityInvite struct {
	Invite string `json:"invite"`
}

// FediChatUser is a chat user link with the resolved display name.
type FediChatUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// FediChatRoom is a chat room link.
type FediChatRoom struct {
	ID string `json:"id"`
}

// LegacyFediChatMember is a member link from the previous chat system.
type LegacyFediChatMember struct {
	ID string `json:"id"`
}

// LegacyFediChatGroup is a group link from the previous chat system.
type LegacyFediChatGroup struct {
	ID string `json:"id"`
}

// Website is an http(s) URL that is not an LNURL service.
type Website struct {
	URL string `json:"url"`
}

// Unknown means nothing matched, or the input was recognised but is not
// supported, in which case Message explains why.
type Unknown struct {
	Message string `json:"message,omitempty"`
}

// OfflineError means the input could not be classified without network
// access.
type OfflineError struct {
	Message string `json:"message"`
}

func (Bolt11) Type() DataType               { return TypeBolt11 }
func (Bolt12) Type() DataType               { return TypeBolt12 }
func (LnurlPay) Type() DataType             { return TypeLnurlPay }
func (LnurlWithdraw) Type() DataType        { return TypeLnurlWithdraw }
func (LnurlAuth) Type() DataType            { return TypeLnurlAuth }
func (BitcoinAddress) Type() DataType       { return TypeBitcoinAddress }
func (Bip21) Type() DataType                { return TypeBip21 }
func (CashuEcash) Type() DataType           { return TypeCashuEcash }
func (FedimintEcash) Type() DataType        { return TypeFedimintEcash }
func (FedimintInvite) Type() DataType       { return TypeFedimintInvite }
func (CommunityInvite) Type() DataType      { return TypeCommunityInvite }
func (FediChatUser) Type() DataType         { return TypeFediChatUser }
func (FediChatRoom) Type() DataType         { return TypeFediChatRoom }
func (LegacyFediChatMember) Type() DataType { return TypeLegacyFediChatMember }
func (LegacyFediChatGroup) Type() DataType  { return TypeLegacyFediChatGroup }
func (Website) Type() DataType              { return TypeWebsite }
func (Unknown) Type() DataType              { return TypeUnknown }
func (OfflineError) Type() DataType         { return TypeOfflineError }

func (Bolt11) isResult()               {}
func (Bolt12) isResult()               {}
func (LnurlPay) isResult()             {}
func (LnurlWithdraw) isResult()        {}
func (LnurlAuth) isResult()            {}
func (BitcoinAddress) isResult()       {}
func (Bip21) isResult()                {}
func (CashuEcash) isResult()           {}
func (FedimintEcash) isResult()        {}
func (FedimintInvite) isResult()       {}
func (CommunityInvite) isResult()      {}
func (FediChatUser) isResult()         {}
func (FediChatRoom) isResult()         {}
func (LegacyFediChatMember) isResult() {}
func (LegacyFediChatGroup) isResult()  {}
func (Website) isResult()              {}
func (Unknown) isResult()              {}
func (OfflineError) isResult()         {}

// Envelope is the wire shape of a Result: {"type": ..., "data": ...}.
// Data is null for Bolt12.
type Envelope struct {
	Type DataType `json:"type"`
	Data any      `json:"data"`
}

// ToEnvelope wraps r for serialization.
func ToEnvelope(r Result) Envelope {
	if r == nil {
		return Envelope{Type: TypeUnknown, Data: Unknown{}}
	}
	if _, ok := r.(Bolt12); ok {
		return Envelope{Type: TypeBolt12}
	}
	return Envelope{Type: r.Type(), Data: r}
}

// PrimaryValue returns the string a user would copy back out of a result:
// the invoice, token, address, invite, id or URL. It is empty for results
// that carry no such value.
func PrimaryValue(r Result) string {
	switch v := r.(type) {
	case Bolt11:
		return v.Invoice.Invoice
	case BitcoinAddress:
		return v.Address
	case Bip21:
		return v.Address
	case CashuEcash:
		return v.Token
	case FedimintEcash:
		return v.Token
	case FedimintInvite:
		return v.Invite
	case CommunityInvite:
		return v.Invite
	case FediChatUser:
		return v.ID
	case FediChatRoom:
		return v.ID
	case LegacyFediChatMember:
		return v.ID
	case LegacyFediChatGroup:
		return v.ID
	case Website:
		return v.URL
	case LnurlAuth:
		return v.URL
	default:
		return ""
	}
}
