// Package multispend derives the state of multi-signature federation
// withdrawals from a room's group status and its withdrawal request events.
//
// Nothing here is stored. Signatures and rejections are append-only sets
// owned by the chat layer, so every status is recomputed on read.
package multispend

// Status is the lifecycle stage of a room's multispend group.
type Status string

// Group statuses.
const (
	StatusNone             Status = "none"
	StatusActiveInvitation Status = "activeInvitation"
	StatusFinalized        Status = "finalized"
)

// Invitation is the proposal that created (or would create) a group.
type Invitation struct {
	Signers        []string `json:"signers"`
	Threshold      int      `json:"threshold"`
	FederationID   string   `json:"federation_id"`
	FederationName string   `json:"federation_name,omitempty"`
}

// HasSigner reports whether userID was invited to vote.
func (i Invitation) HasSigner(userID string) bool {
	for _, s := range i.Signers {
		if s == userID {
			return true
		}
	}
	return false
}

// InvitationState is the vote tally of an invitation that has not been
// finalized yet. Pubkeys maps a user id to the key they accepted with.
type InvitationState struct {
	Invitation   Invitation        `json:"invitation"`
	Proposer     string            `json:"proposer"`
	Pubkeys      map[string]string `json:"pubkeys"`
	Rejections   []string          `json:"rejections"`
	FederationID string            `json:"federationId"`
}

// FinalizedGroup is an invitation every signer accepted.
type FinalizedGroup struct {
	Invitation   Invitation        `json:"invitation"`
	Proposer     string            `json:"proposer"`
	Pubkeys      map[string]string `json:"pubkeys"`
	FederationID string            `json:"federationId"`
}

// GroupStatus is the multispend status of one room. State is set while an
// invitation is active, FinalizedGroup once it is finalized.
type GroupStatus struct {
	Status         Status           `json:"status"`
	ActiveInviteID string           `json:"active_invite_id,omitempty"`
	State          *InvitationState `json:"state,omitempty"`
	InviteEventID  string           `json:"invite_event_id,omitempty"`
	FinalizedGroup *FinalizedGroup  `json:"finalized_group,omitempty"`
}

// IsFinalized reports whether withdrawals can be voted on.
func (g GroupStatus) IsFinalized() bool {
	return g.Status == StatusFinalized && g.FinalizedGroup != nil
}

// Threshold is the number of signatures a withdrawal needs. It is zero
// unless the group is finalized.
func (g GroupStatus) Threshold() int {
	if !g.IsFinalized() {
		return 0
	}
	return g.FinalizedGroup.Invitation.Threshold
}

// VoterCount is the number of members allowed to vote on withdrawals.
func (g GroupStatus) VoterCount() int {
	if !g.IsFinalized() {
		return 0
	}
	return len(g.FinalizedGroup.Pubkeys)
}

// IsVoter reports whether userID holds a key in the finalized group.
func (g GroupStatus) IsVoter(userID string) bool {
	if !g.IsFinalized() {
		return false
	}
	_, ok := g.FinalizedGroup.Pubkeys[userID]
	return ok
}

// WithdrawalRequestEvent is a request to move funds out of the group.
// TransferAmount is in msats.
type WithdrawalRequestEvent struct {
	Sender         string            `json:"sender"`
	Signatures     map[string]string `json:"signatures"`
	Rejections     []string          `json:"rejections"`
	TransferAmount uint64            `json:"transfer_amount"`
	Description    string            `json:"description,omitempty"`
	Completed      bool              `json:"completed"`
}

// WithdrawalRequest is a withdrawal event as seen in the room timeline.
// Time is the origin server timestamp in unix milliseconds.
type WithdrawalRequest struct {
	ID    string                 `json:"id"`
	Time  int64                  `json:"time"`
	Event WithdrawalRequestEvent `json:"event"`
}

// WithdrawalStatus is derived from the group status and the votes on a
// request. It is never stored.
type WithdrawalStatus string

// Withdrawal statuses.
const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalCompleted WithdrawalStatus = "completed"
)
