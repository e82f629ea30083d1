package multispend

// InvitationEvent is a group invitation as it appears in the room
// timeline.
type InvitationEvent struct {
	ID         string     `json:"id"`
	Sender     string     `json:"sender"`
	Invitation Invitation `json:"invitation"`
}

// InvitationStatus says where an invitation event stands relative to the
// room's group.
type InvitationStatus string

// Invitation statuses.
const (
	InvitationActive    InvitationStatus = "activeInvitation"
	InvitationFinalized InvitationStatus = "finalized"
	InvitationInactive  InvitationStatus = "inactive"
)

// Role is the current user's part in an invitation.
type Role string

// Roles.
const (
	RoleProposer Role = "proposer"
	RoleVoter    Role = "voter"
	RoleMember   Role = "member"
)

// InvitationData is what a client shows for one invitation event.
//
// HasInvite is true when the richer invitation state was available. Without
// it HasVoted can only be true for the proposer, so it under-reports votes.
type InvitationData struct {
	Proposer  string           `json:"proposer"`
	Status    InvitationStatus `json:"status"`
	Role      Role             `json:"role"`
	Voters    int              `json:"voters"`
	HasVoted  bool             `json:"hasVoted"`
	Threshold int              `json:"threshold"`
	HasInvite bool             `json:"hasInvite"`
}

// ExtractInvitationData projects an invitation event for currentUser.
// state is the invitation's vote tally if the client already has it, or
// nil.
func ExtractInvitationData(event InvitationEvent, state *InvitationState, status GroupStatus, currentUser string) InvitationData {
	invitation := event.Invitation
	proposer := event.Sender
	if state != nil {
		invitation = state.Invitation
		if state.Proposer != "" {
			proposer = state.Proposer
		}
	}

	data := InvitationData{
		Proposer:  proposer,
		Status:    invitationStatus(event.ID, status),
		Voters:    len(invitation.Signers),
		Threshold: invitation.Threshold,
		HasInvite: state != nil,
	}

	switch {
	case event.Sender == currentUser:
		data.Role = RoleProposer
	case invitation.HasSigner(currentUser):
		data.Role = RoleVoter
	default:
		data.Role = RoleMember
	}

	if state != nil {
		_, data.HasVoted = state.Pubkeys[currentUser]
	} else {
		data.HasVoted = event.Sender == currentUser
	}
	return data
}

func invitationStatus(eventID string, status GroupStatus) InvitationStatus {
	switch {
	case eventID == "":
		return InvitationInactive
	case status.Status == StatusActiveInvitation && eventID == status.ActiveInviteID:
		return InvitationActive
	case status.Status == StatusFinalized && eventID == status.InviteEventID:
		return InvitationFinalized
	default:
		return InvitationInactive
	}
}

// GroupInvitation returns the invitation behind the room's current group:
// the active one while voting, the accepted one once finalized.
func GroupInvitation(status GroupStatus) (Invitation, bool) {
	switch status.Status {
	case StatusActiveInvitation:
		if status.State != nil {
			return status.State.Invitation, true
		}
	case StatusFinalized:
		if status.FinalizedGroup != nil {
			return status.FinalizedGroup.Invitation, true
		}
	case StatusNone:
	}
	return Invitation{}, false
}
