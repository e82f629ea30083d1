package multispend

import (
	"encoding/json"
	"fmt"
	"io"

	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

// RoomState is a snapshot of one multispend room: its group status, the
// withdrawal and invitation events seen in the timeline and any invitation
// tallies already fetched.
type RoomState struct {
	CurrentUser      string                     `json:"current_user"`
	GroupStatus      GroupStatus                `json:"group_status"`
	Withdrawals      []WithdrawalRequest        `json:"withdrawals"`
	Invitations      []InvitationEvent          `json:"invitations"`
	InvitationStates map[string]InvitationState `json:"invitation_states,omitempty"`
}

// LoadRoomState decodes and validates a JSON room snapshot.
func LoadRoomState(r io.Reader) (*RoomState, error) {
	var s RoomState
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fedierr.Wrap(fedierr.ErrInvalidFormat, "decoding room state: %v", err)
	}
	if s.GroupStatus.Status == "" {
		s.GroupStatus.Status = StatusNone
	}
	if err := s.GroupStatus.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the shape of the group status. The derivation functions
// accept any value; this is for statuses read from outside.
func (g GroupStatus) Validate() error {
	invalid := func(reason string) error {
		return fedierr.WithDetails(fedierr.ErrInvalidGroupStatus, map[string]string{
			"status": string(g.Status),
			"reason": reason,
		})
	}

	switch g.Status {
	case StatusNone:
		return nil

	case StatusActiveInvitation:
		if g.State == nil {
			return invalid("active invitation without state")
		}
		if g.ActiveInviteID == "" {
			return invalid("active invitation without invite id")
		}
		return validateThreshold(g.State.Invitation, invalid)

	case StatusFinalized:
		if g.FinalizedGroup == nil {
			return invalid("finalized without finalized_group")
		}
		if err := validateThreshold(g.FinalizedGroup.Invitation, invalid); err != nil {
			return err
		}
		if voters := len(g.FinalizedGroup.Pubkeys); g.FinalizedGroup.Invitation.Threshold > voters {
			return invalid(fmt.Sprintf("threshold %d exceeds %d voters",
				g.FinalizedGroup.Invitation.Threshold, voters))
		}
		for userID := range g.FinalizedGroup.Pubkeys {
			if len(g.FinalizedGroup.Invitation.Signers) > 0 && !g.FinalizedGroup.Invitation.HasSigner(userID) {
				return invalid("pubkey for " + userID + " who is not a signer")
			}
		}
		return nil

	default:
		return invalid("unknown status")
	}
}

func validateThreshold(inv Invitation, invalid func(string) error) error {
	if inv.Threshold < 1 {
		return invalid("threshold must be at least 1")
	}
	if len(inv.Signers) > 0 && inv.Threshold > len(inv.Signers) {
		return invalid(fmt.Sprintf("threshold %d exceeds %d signers", inv.Threshold, len(inv.Signers)))
	}
	return nil
}

// InvitationData returns the data to show for every invitation event, using
// the room's active tally or a stored one when available.
func (s *RoomState) InvitationData() []InvitationData {
	out := make([]InvitationData, 0, len(s.Invitations))
	for _, ev := range s.Invitations {
		out = append(out, ExtractInvitationData(ev, s.stateFor(ev.ID), s.GroupStatus, s.CurrentUser))
	}
	return out
}

func (s *RoomState) stateFor(eventID string) *InvitationState {
	if st, ok := s.InvitationStates[eventID]; ok {
		return &st
	}
	g := s.GroupStatus
	if g.Status == StatusActiveInvitation && g.State != nil && eventID == g.ActiveInviteID {
		return g.State
	}
	return nil
}
