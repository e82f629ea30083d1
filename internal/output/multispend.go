package output

import (
	"strconv"
	"time"

	"github.com/fedibtc/fedicore/internal/multispend"
)

// WithdrawalView is one withdrawal request with its derived state.
type WithdrawalView struct {
	ID       string                      `json:"id"`
	Time     int64                       `json:"time"`
	Sender   string                      `json:"sender"`
	Amount   uint64                      `json:"amount"`
	Votes    multispend.Votes            `json:"votes"`
	HasVoted bool                        `json:"hasVoted"`
	Status   multispend.WithdrawalStatus `json:"status"`
}

// WithdrawalViews derives the status and tally of each request for user.
func WithdrawalViews(reqs []multispend.WithdrawalRequest, status multispend.GroupStatus, user string) []WithdrawalView {
	views := make([]WithdrawalView, 0, len(reqs))
	for _, r := range reqs {
		votes := multispend.VoteSummary(status, r.Event)
		views = append(views, WithdrawalView{
			ID:       r.ID,
			Time:     r.Time,
			Sender:   r.Event.Sender,
			Amount:   r.Event.TransferAmount,
			Votes:    votes,
			HasVoted: multispend.HasUserVotedForWithdrawal(r.Event, user),
			Status:   votes.Status,
		})
	}
	return views
}

// RenderWithdrawals writes withdrawal views as a table or a JSON array.
func RenderWithdrawals(f *Formatter, views []WithdrawalView) error {
	if f.IsJSON() {
		return writeJSON(f.Writer(), views)
	}

	t := NewTable("ID", "SENT", "SENDER", "AMOUNT", "VOTES", "STATUS", "VOTED").AlignRight(3, 4)
	for _, v := range views {
		voted := ""
		if v.HasVoted {
			voted = "yes"
		}
		t.AddRow(
			v.ID,
			time.UnixMilli(v.Time).UTC().Format(time.DateTime),
			v.Sender,
			FormatMsats(v.Amount),
			strconv.Itoa(v.Votes.Approvals)+"/"+strconv.Itoa(v.Votes.Threshold),
			string(v.Status),
			voted,
		)
	}
	return t.Render(f.Writer())
}

// RenderInvitations writes invitation projections as a table or a JSON
// array.
func RenderInvitations(f *Formatter, data []multispend.InvitationData) error {
	if f.IsJSON() {
		return writeJSON(f.Writer(), data)
	}

	t := NewTable("PROPOSER", "STATUS", "ROLE", "THRESHOLD", "VOTED")
	for _, d := range data {
		voted := "no"
		switch {
		case d.HasVoted:
			voted = "yes"
		case !d.HasInvite:
			voted = "unknown"
		}
		t.AddRow(
			d.Proposer,
			string(d.Status),
			string(d.Role),
			strconv.Itoa(d.Threshold)+" of "+strconv.Itoa(d.Voters),
			voted,
		)
	}
	return t.Render(f.Writer())
}
