package multispend

import (
	"slices"
	"sort"
	"strings"

	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

// DeriveWithdrawalStatus computes the status of a withdrawal request.
//
// Before the group is finalized every request is pending. A completed flag
// wins over the vote counts. Otherwise the request is approved once the
// signatures reach the threshold, and rejected once the voters that have
// not rejected it can no longer reach the threshold.
func DeriveWithdrawalStatus(status GroupStatus, event WithdrawalRequestEvent) WithdrawalStatus {
	if !status.IsFinalized() {
		return WithdrawalPending
	}
	if event.Completed {
		return WithdrawalCompleted
	}

	threshold := status.Threshold()
	voteCount := len(event.Signatures)
	voterCount := status.VoterCount()
	rejectionCount := len(event.Rejections)

	switch {
	case voteCount >= threshold:
		return WithdrawalApproved
	case voterCount-rejectionCount < threshold:
		return WithdrawalRejected
	default:
		return WithdrawalPending
	}
}

// HasUserVotedForWithdrawal reports whether userID signed or rejected the
// request.
func HasUserVotedForWithdrawal(event WithdrawalRequestEvent, userID string) bool {
	if slices.Contains(event.Rejections, userID) {
		return true
	}
	_, signed := event.Signatures[userID]
	return signed
}

// Filter selects withdrawal requests by derived status.
type Filter string

// Filters accepted by FilterWithdrawalRequests.
const (
	FilterAll      Filter = "all"
	FilterPending  Filter = "pending"
	FilterApproved Filter = "approved"
	FilterRejected Filter = "rejected"
)

// ParseFilter parses a filter name. An empty name means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPending, FilterApproved, FilterRejected:
		return f, nil
	default:
		return "", fedierr.WithDetails(fedierr.ErrInvalidInput, map[string]string{
			"filter": s,
			"valid":  "all, pending, approved, rejected",
		})
	}
}

// matches reports whether a derived status passes f. Completed requests
// count as approved.
func (f Filter) matches(s WithdrawalStatus) bool {
	switch f {
	case FilterAll:
		return true
	case FilterApproved:
		return s == WithdrawalApproved || s == WithdrawalCompleted
	default:
		return string(f) == string(s)
	}
}

// FilterWithdrawalRequests returns the requests matching filter. With
// FilterAll, or before the group is finalized, the input order is kept and
// nothing is dropped.
//
// Pending requests are sorted in two stable passes: oldest first, then the
// requests currentUser has not voted on ahead of those they have. The
// second pass keeps the time order within each group.
func FilterWithdrawalRequests(reqs []WithdrawalRequest, filter Filter, status GroupStatus, currentUser string) []WithdrawalRequest {
	if filter == FilterAll || !status.IsFinalized() {
		return slices.Clone(reqs)
	}

	out := make([]WithdrawalRequest, 0, len(reqs))
	for _, r := range reqs {
		if filter.matches(DeriveWithdrawalStatus(status, r.Event)) {
			out = append(out, r)
		}
	}

	if filter == FilterPending {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Time < out[j].Time
		})
		sort.SliceStable(out, func(i, j int) bool {
			return !HasUserVotedForWithdrawal(out[i].Event, currentUser) &&
				HasUserVotedForWithdrawal(out[j].Event, currentUser)
		})
	}
	return out
}

// CountNeedingVote returns how many pending requests still wait for a vote
// from userID. Users outside the finalized group never need to vote.
func CountNeedingVote(reqs []WithdrawalRequest, status GroupStatus, userID string) int {
	if !status.IsVoter(userID) {
		return 0
	}
	n := 0
	for _, r := range reqs {
		if DeriveWithdrawalStatus(status, r.Event) == WithdrawalPending &&
			!HasUserVotedForWithdrawal(r.Event, userID) {
			n++
		}
	}
	return n
}

// Votes is the tally of one withdrawal request.
type Votes struct {
	Approvals  int              `json:"approvals"`
	Rejections int              `json:"rejections"`
	Remaining  int              `json:"remaining"`
	Threshold  int              `json:"threshold"`
	Voters     int              `json:"voters"`
	Status     WithdrawalStatus `json:"status"`
}

// VoteSummary tallies event against the group. Remaining counts voters
// who have neither signed nor rejected.
func VoteSummary(status GroupStatus, event WithdrawalRequestEvent) Votes {
	v := Votes{
		Approvals:  len(event.Signatures),
		Rejections: len(event.Rejections),
		Threshold:  status.Threshold(),
		Voters:     status.VoterCount(),
		Status:     DeriveWithdrawalStatus(status, event),
	}
	v.Remaining = max(v.Voters-v.Approvals-v.Rejections, 0)
	return v
}
