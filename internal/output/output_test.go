package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedibtc/fedicore/internal/bridge"
	"github.com/fedibtc/fedicore/internal/multispend"
	"github.com/fedibtc/fedicore/internal/parser"
	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	assert.Equal(t, FormatJSON, DetectFormat(&buf, FormatAuto))
	assert.Equal(t, FormatJSON, DetectFormat(&buf, ""))
	assert.Equal(t, FormatText, DetectFormat(&buf, FormatText))
	assert.Equal(t, FormatJSON, DetectFormat(nil, FormatAuto))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, FormatJSON, DetectFormat(f, FormatAuto), "regular files are not terminals")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatJSON, ParseFormat(" JSON "))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatAuto, ParseFormat("yaml"))
}

func TestFormatterPrintFields(t *testing.T) {
	t.Parallel()

	fields := []Field{{"Type", "bolt11"}, {"Description", "coffee"}}

	var text bytes.Buffer
	require.NoError(t, NewFormatter(FormatText, &text).PrintFields(fields))
	assert.Equal(t, "Type:         bolt11\nDescription:  coffee\n", text.String())

	var js bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON, &js).PrintFields(fields))
	assert.JSONEq(t, `{"Type":"bolt11","Description":"coffee"}`, js.String())
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	err := fedierr.WithSuggestion(
		fedierr.WithDetails(fedierr.ErrInvalidInput, map[string]string{"b": "2", "a": "1"}),
		"check the input",
	)

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, FormatError(&buf, err, FormatText))
		out := buf.String()
		assert.Contains(t, out, "Error: ")
		assert.Contains(t, out, "Suggestion: check the input")
		assert.Less(t, strings.Index(out, "  a: 1"), strings.Index(out, "  b: 2"))
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, FormatError(&buf, err, FormatJSON))

		var got ErrorOutput
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, fedierr.ErrInvalidInput.Code, got.Error.Code)
		assert.Equal(t, fedierr.ExitInput, got.Error.ExitCode)
		assert.Equal(t, "1", got.Error.Details["a"])
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, FormatError(&buf, errors.New("boom"), FormatJSON)) //nolint:err113 // test error

		var got ErrorOutput
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "GENERAL_ERROR", got.Error.Code)
		assert.Equal(t, "boom", got.Error.Message)
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, FormatError(&buf, nil, FormatText))
		assert.Empty(t, buf.String())
	})
}

func TestFormatMsats(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1000 sats", FormatMsats(1_000_000))
	assert.Equal(t, "0 sats", FormatMsats(0))
	assert.Equal(t, "1 sats (1500 mSAT)", FormatMsats(1500))
}

func TestRenderResult(t *testing.T) {
	t.Parallel()

	bolt := parser.Bolt11{
		Invoice: bridge.Invoice{
			Invoice:     "lnbc1invoice",
			PaymentHash: "ab",
			Amount:      21_000,
			Description: "coffee",
		},
		FallbackAddress: "bc1qfallback",
	}

	var js bytes.Buffer
	require.NoError(t, RenderResult(NewFormatter(FormatJSON, &js), bolt))
	var env map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &env))
	assert.Equal(t, "bolt11", env["type"])

	var text bytes.Buffer
	require.NoError(t, RenderResult(NewFormatter(FormatText, &text), bolt))
	out := text.String()
	assert.Contains(t, out, "Type:")
	assert.Contains(t, out, "21 sats")
	assert.Contains(t, out, "bc1qfallback")
	assert.NotContains(t, out, "Fedi fee")
}

func TestResultFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result parser.Result
		want   []Field
	}{
		{"nil", nil, []Field{{"Type", "unknown"}}},
		{"unknown with message", parser.Unknown{Message: "nope"}, []Field{{"Type", "unknown"}, {"Message", "nope"}}},
		{"bolt12", parser.Bolt12{}, []Field{{"Type", "bolt12"}}},
		{"website", parser.Website{URL: "https://fedi.xyz"}, []Field{{"Type", "website"}, {"Value", "https://fedi.xyz"}}},
		{
			"bip21",
			parser.Bip21{Address: "bc1q", Amount: btcutil.Amount(50_000), Label: "Alice"},
			[]Field{{"Type", "bip21"}, {"Address", "bc1q"}, {"Amount", btcutil.Amount(50_000).String()}, {"Label", "Alice"}},
		},
		{
			"chat user",
			parser.FediChatUser{ID: "@bob:m1.8fa.in", DisplayName: "Bob"},
			[]Field{{"Type", "fedi:user"}, {"User", "@bob:m1.8fa.in"}, {"Display name", "Bob"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResultFields(tt.result))
		})
	}
}

func TestQRPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		result parser.Result
		want   string
		ok     bool
	}{
		{parser.Bolt11{Invoice: bridge.Invoice{Invoice: "lnbc1abc"}}, "LIGHTNING:LNBC1ABC", true},
		{parser.BitcoinAddress{Address: "bc1qxyz"}, "bitcoin:bc1qxyz", true},
		{parser.FedimintInvite{Invite: "fed11abc"}, "FED11ABC", true},
		{parser.FediChatRoom{ID: "!r:m1.8fa.in"}, "fedi:room:!r:m1.8fa.in:::", true},
		{parser.CashuEcash{Token: "cashuAabc"}, "cashuAabc", true},
		{parser.Bolt12{}, "", false},
		{parser.Unknown{}, "", false},
	}

	for _, tt := range tests {
		got, ok := QRPayload(tt.result)
		assert.Equal(t, tt.ok, ok, tt.result.Type())
		assert.Equal(t, tt.want, got, tt.result.Type())
	}
}

func TestRenderQR(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderQR(&buf, "bitcoin:1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", DefaultQRConfig()))
	assert.Empty(t, buf.String(), "non-terminal writers get nothing")

	cfg := DefaultQRConfig()
	cfg.Force = true
	require.NoError(t, RenderQR(&buf, "bitcoin:1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", cfg))
	assert.NotEmpty(t, buf.String())

	assert.False(t, CanRenderQR(&buf))
}

func TestTable(t *testing.T) {
	t.Parallel()

	table := NewTable("NAME", "AMOUNT").AlignRight(1)
	table.AddRow("alice", "5")
	table.AddRow("bob", "1000", "extra")
	table.AddRow("carol")

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, ""+
		"NAME   AMOUNT\n"+
		"-----  ------\n"+
		"alice       5\n"+
		"bob      1000\n"+
		"carol\n", table.String())

	assert.Empty(t, NewTable().String())
}

func TestRenderWithdrawals(t *testing.T) {
	t.Parallel()

	status := multispend.GroupStatus{
		Status: multispend.StatusFinalized,
		FinalizedGroup: &multispend.FinalizedGroup{
			Invitation: multispend.Invitation{Threshold: 2},
			Pubkeys:    map[string]string{"@a:x": "1", "@b:x": "2", "@c:x": "3"},
		},
	}
	reqs := []multispend.WithdrawalRequest{
		{ID: "$w1", Time: 1_700_000_000_000, Event: multispend.WithdrawalRequestEvent{
			Sender: "@a:x", TransferAmount: 5_000_000, Signatures: map[string]string{"@a:x": "s"},
		}},
	}

	views := WithdrawalViews(reqs, status, "@a:x")
	require.Len(t, views, 1)
	assert.True(t, views[0].HasVoted)
	assert.Equal(t, multispend.WithdrawalPending, views[0].Status)
	assert.Equal(t, 2, views[0].Votes.Remaining)

	var text bytes.Buffer
	require.NoError(t, RenderWithdrawals(NewFormatter(FormatText, &text), views))
	assert.Contains(t, text.String(), "2023-11-14 22:13:20")
	assert.Contains(t, text.String(), "5000 sats")
	assert.Contains(t, text.String(), "1/2")

	var js bytes.Buffer
	require.NoError(t, RenderWithdrawals(NewFormatter(FormatJSON, &js), views))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, "pending", decoded[0]["status"])
}

func TestRenderInvitations(t *testing.T) {
	t.Parallel()

	data := []multispend.InvitationData{
		{Proposer: "@a:x", Status: multispend.InvitationActive, Role: multispend.RoleVoter, Voters: 3, Threshold: 2},
	}

	var text bytes.Buffer
	require.NoError(t, RenderInvitations(NewFormatter(FormatText, &text), data))
	assert.Contains(t, text.String(), "2 of 3")
	assert.Contains(t, text.String(), "unknown")
}

func TestWarn(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Warn(&buf, "bridge at %s unreachable", "ws://x")
	assert.Equal(t, "warning: bridge at ws://x unreachable\n", buf.String())
}
