package multispend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

func TestExtractInvitationData(t *testing.T) {
	t.Parallel()

	invitation := Invitation{Signers: []string{alice, bob, carol}, Threshold: 2, FederationID: "fed"}
	event := InvitationEvent{ID: "$invite", Sender: alice, Invitation: invitation}

	active := GroupStatus{
		Status:         StatusActiveInvitation,
		ActiveInviteID: "$invite",
		State: &InvitationState{
			Invitation: invitation,
			Proposer:   alice,
			Pubkeys:    map[string]string{alice: "pk-a", bob: "pk-b"},
		},
	}

	tests := []struct {
		name   string
		event  InvitationEvent
		state  *InvitationState
		status GroupStatus
		user   string
		want   InvitationData
	}{
		{
			name:   "proposer without tally",
			event:  event,
			status: active,
			user:   alice,
			want: InvitationData{
				Proposer: alice, Status: InvitationActive, Role: RoleProposer,
				Voters: 3, HasVoted: true, Threshold: 2,
			},
		},
		{
			name:   "voter without tally cannot be shown as voted",
			event:  event,
			status: active,
			user:   bob,
			want: InvitationData{
				Proposer: alice, Status: InvitationActive, Role: RoleVoter,
				Voters: 3, Threshold: 2,
			},
		},
		{
			name:   "voter with tally",
			event:  event,
			state:  active.State,
			status: active,
			user:   bob,
			want: InvitationData{
				Proposer: alice, Status: InvitationActive, Role: RoleVoter,
				Voters: 3, HasVoted: true, Threshold: 2, HasInvite: true,
			},
		},
		{
			name:   "voter with tally not yet voted",
			event:  event,
			state:  active.State,
			status: active,
			user:   carol,
			want: InvitationData{
				Proposer: alice, Status: InvitationActive, Role: RoleVoter,
				Voters: 3, Threshold: 2, HasInvite: true,
			},
		},
		{
			name:   "member",
			event:  event,
			status: active,
			user:   dave,
			want: InvitationData{
				Proposer: alice, Status: InvitationActive, Role: RoleMember,
				Voters: 3, Threshold: 2,
			},
		},
		{
			name:   "finalized",
			event:  event,
			status: finalized(2, alice, bob, carol),
			user:   carol,
			want: InvitationData{
				Proposer: alice, Status: InvitationFinalized, Role: RoleVoter,
				Voters: 3, Threshold: 2,
			},
		},
		{
			name:   "superseded",
			event:  InvitationEvent{ID: "$old", Sender: bob, Invitation: invitation},
			status: active,
			user:   bob,
			want: InvitationData{
				Proposer: bob, Status: InvitationInactive, Role: RoleProposer,
				Voters: 3, HasVoted: true, Threshold: 2,
			},
		},
		{
			name:   "no group",
			event:  event,
			status: GroupStatus{Status: StatusNone},
			user:   dave,
			want: InvitationData{
				Proposer: alice, Status: InvitationInactive, Role: RoleMember,
				Voters: 3, Threshold: 2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractInvitationData(tt.event, tt.state, tt.status, tt.user)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroupInvitation(t *testing.T) {
	t.Parallel()

	inv, ok := GroupInvitation(finalized(2, alice, bob))
	require.True(t, ok)
	assert.Equal(t, 2, inv.Threshold)

	inv, ok = GroupInvitation(GroupStatus{
		Status: StatusActiveInvitation,
		State:  &InvitationState{Invitation: Invitation{Threshold: 1, Signers: []string{alice}}},
	})
	require.True(t, ok)
	assert.Equal(t, []string{alice}, inv.Signers)

	_, ok = GroupInvitation(GroupStatus{Status: StatusNone})
	assert.False(t, ok)

	_, ok = GroupInvitation(GroupStatus{Status: StatusFinalized})
	assert.False(t, ok)
}

func TestGroupStatusValidate(t *testing.T) {
	t.Parallel()

	overThreshold := finalized(2, alice, bob)
	overThreshold.FinalizedGroup.Invitation.Threshold = 3
	overThreshold.FinalizedGroup.Invitation.Signers = nil

	strangerKey := finalized(1, alice, bob)
	strangerKey.FinalizedGroup.Pubkeys[dave] = "pk"

	tests := []struct {
		name    string
		status  GroupStatus
		wantErr bool
	}{
		{"none", GroupStatus{Status: StatusNone}, false},
		{"finalized", finalized(2, alice, bob, carol), false},
		{"unknown", GroupStatus{Status: "pending"}, true},
		{"finalized without group", GroupStatus{Status: StatusFinalized}, true},
		{"threshold above voters", overThreshold, true},
		{"key from non-signer", strangerKey, true},
		{"active without state", GroupStatus{Status: StatusActiveInvitation, ActiveInviteID: "$i"}, true},
		{
			"active zero threshold",
			GroupStatus{
				Status:         StatusActiveInvitation,
				ActiveInviteID: "$i",
				State:          &InvitationState{Invitation: Invitation{Signers: []string{alice}}},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.status.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, fedierr.ErrInvalidGroupStatus)
				return
			}
			require.NoError(t, err)
		})
	}
}

const roomJSON = `{
  "current_user": "@bob:m1.8fa.in",
  "group_status": {
    "status": "activeInvitation",
    "active_invite_id": "$invite",
    "state": {
      "invitation": {"signers": ["@alice:m1.8fa.in", "@bob:m1.8fa.in"], "threshold": 2, "federation_id": "fed"},
      "proposer": "@alice:m1.8fa.in",
      "pubkeys": {"@alice:m1.8fa.in": "pk-a"},
      "rejections": [],
      "federationId": "fed"
    }
  },
  "withdrawals": [],
  "invitations": [
    {"id": "$invite", "sender": "@alice:m1.8fa.in", "invitation": {"signers": ["@alice:m1.8fa.in", "@bob:m1.8fa.in"], "threshold": 2, "federation_id": "fed"}},
    {"id": "$old", "sender": "@bob:m1.8fa.in", "invitation": {"signers": ["@bob:m1.8fa.in"], "threshold": 1, "federation_id": "fed"}}
  ]
}`

func TestLoadRoomState(t *testing.T) {
	t.Parallel()

	state, err := LoadRoomState(strings.NewReader(roomJSON))
	require.NoError(t, err)
	assert.Equal(t, bob, state.CurrentUser)
	assert.Equal(t, StatusActiveInvitation, state.GroupStatus.Status)

	data := state.InvitationData()
	require.Len(t, data, 2)

	assert.Equal(t, InvitationActive, data[0].Status)
	assert.Equal(t, RoleVoter, data[0].Role)
	assert.True(t, data[0].HasInvite)
	assert.False(t, data[0].HasVoted)

	assert.Equal(t, InvitationInactive, data[1].Status)
	assert.Equal(t, RoleProposer, data[1].Role)
	assert.False(t, data[1].HasInvite)
	assert.True(t, data[1].HasVoted)
}

func TestLoadRoomStateErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadRoomState(strings.NewReader(`{"group_status": {"status": "finalized"}}`))
	require.ErrorIs(t, err, fedierr.ErrInvalidGroupStatus)

	_, err = LoadRoomState(strings.NewReader(`{"unexpected": true}`))
	require.ErrorIs(t, err, fedierr.ErrInvalidFormat)

	_, err = LoadRoomState(strings.NewReader(`not json`))
	require.ErrorIs(t, err, fedierr.ErrInvalidFormat)

	state, err := LoadRoomState(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Equal(t, StatusNone, state.GroupStatus.Status)
}
