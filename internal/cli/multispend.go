package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fedibtc/fedicore/internal/multispend"
	"github.com/fedibtc/fedicore/internal/output"
	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	multispendFile   string
	multispendUser   string
	multispendFilter string
)

// multispendCmd is the parent command for multispend room inspection.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var multispendCmd = &cobra.Command{
	Use:   "multispend",
	Short: "Inspect multispend groups and withdrawals",
	Long: `Derive multispend state from an exported room snapshot.

The snapshot is a JSON document holding the room's group status, its
withdrawal request events, its invitation events and the viewing user.
Every status is computed from the votes on each request; nothing is
written back.`,
	GroupID: groupMultispend,
}

// multispendStatusCmd summarizes the group.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var multispendStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the group and outstanding votes",
	Long: `Show the group's lifecycle stage, its voting threshold and how many
pending withdrawals still need a vote from the viewing user.`,
	Example: `  fedicore multispend status --file room.json
  fedicore multispend status --file room.json --user @bob:m1.8fa.in -o json`,
	Args: cobra.NoArgs,
	RunE: runMultispendStatus,
}

// multispendWithdrawalsCmd lists withdrawal requests.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var multispendWithdrawalsCmd = &cobra.Command{
	Use:   "withdrawals",
	Short: "List withdrawal requests with their derived status",
	Long: `List the room's withdrawal requests with votes and status.

--filter selects all, pending, approved or rejected requests. Approved
includes completed withdrawals. Pending requests the viewing user has not
voted on are listed first, oldest first within each half. Groups that are
not finalized list every request unfiltered.`,
	Example: `  fedicore multispend withdrawals --file room.json
  fedicore multispend withdrawals --file room.json --filter pending`,
	Args: cobra.NoArgs,
	RunE: runMultispendWithdrawals,
}

// multispendWithdrawalCmd shows one withdrawal request.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var multispendWithdrawalCmd = &cobra.Command{
	Use:     "withdrawal <event-id>",
	Short:   "Show the vote tally of one withdrawal request",
	Long:    `Show the approvals, rejections and derived status of one withdrawal request.`,
	Example: `  fedicore multispend withdrawal '$req1' --file room.json`,
	Args:    cobra.ExactArgs(1),
	RunE:    runMultispendWithdrawal,
}

// multispendInvitationsCmd lists invitation events.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var multispendInvitationsCmd = &cobra.Command{
	Use:   "invitations",
	Short: "List group invitations and the viewer's role in each",
	Long: `List the room's group invitation events with their proposer, status and
threshold, and whether the viewing user proposed, votes on or only watches
each one.`,
	Example: `  fedicore multispend invitations --file room.json`,
	Args:    cobra.NoArgs,
	RunE:    runMultispendInvitations,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(multispendCmd)
	multispendCmd.AddCommand(multispendStatusCmd, multispendWithdrawalsCmd, multispendWithdrawalCmd, multispendInvitationsCmd)

	multispendCmd.PersistentFlags().StringVarP(&multispendFile, "file", "f", "", "room snapshot JSON file, or - for stdin (required)")
	multispendCmd.PersistentFlags().StringVar(&multispendUser, "user", "", "view as this user id instead of the snapshot's current_user")
	_ = multispendCmd.MarkPersistentFlagRequired("file")

	multispendWithdrawalsCmd.Flags().StringVar(&multispendFilter, "filter", "all", "all, pending, approved or rejected")
}

// loadRoom reads the snapshot named by --file and applies --user.
func loadRoom(cmd *cobra.Command) (*multispend.RoomState, error) {
	var r io.Reader
	if multispendFile == "-" {
		r = cmd.InOrStdin()
	} else {
		// #nosec G304 -- path is supplied by the user on the command line
		f, err := os.Open(multispendFile)
		if err != nil {
			return nil, fedierr.WithSuggestion(
				fedierr.Wrap(fedierr.ErrNotFound, "opening %s: %v", multispendFile, err),
				"pass the path of an exported room snapshot with --file",
			)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	room, err := multispend.LoadRoomState(r)
	if err != nil {
		return nil, err
	}
	if multispendUser != "" {
		room.CurrentUser = multispendUser
	}
	log.Debugf("loaded room: status=%s withdrawals=%d invitations=%d user=%s",
		room.GroupStatus.Status, len(room.Withdrawals), len(room.Invitations), room.CurrentUser)
	return room, nil
}

// groupSummary is the JSON shape of "multispend status".
type groupSummary struct {
	Status          multispend.Status `json:"status"`
	FederationID    string            `json:"federationId,omitempty"`
	FederationName  string            `json:"federationName,omitempty"`
	Threshold       int               `json:"threshold"`
	Voters          int               `json:"voters"`
	IsVoter         bool              `json:"isVoter"`
	Withdrawals     int               `json:"withdrawals"`
	NeedingYourVote int               `json:"needingYourVote"`
}

func summarize(room *multispend.RoomState) groupSummary {
	gs := room.GroupStatus
	s := groupSummary{
		Status:          gs.Status,
		Threshold:       gs.Threshold(),
		Voters:          gs.VoterCount(),
		IsVoter:         gs.IsVoter(room.CurrentUser),
		Withdrawals:     len(room.Withdrawals),
		NeedingYourVote: multispend.CountNeedingVote(room.Withdrawals, gs, room.CurrentUser),
	}
	if inv, ok := multispend.GroupInvitation(gs); ok {
		s.FederationID = inv.FederationID
		s.FederationName = inv.FederationName
	}
	return s
}

func runMultispendStatus(cmd *cobra.Command, _ []string) error {
	room, err := loadRoom(cmd)
	if err != nil {
		return err
	}

	s := summarize(room)
	if formatter.IsJSON() {
		return formatter.Print(s)
	}

	fields := []output.Field{{Name: "Status", Value: string(s.Status)}}
	if s.Status != multispend.StatusNone {
		fields = append(fields,
			output.Field{Name: "Federation", Value: federationLabel(s)},
			output.Field{Name: "Threshold", Value: fmt.Sprintf("%d of %d", s.Threshold, s.Voters)},
			output.Field{Name: "You vote", Value: yesNo(s.IsVoter)},
		)
	}
	fields = append(fields,
		output.Field{Name: "Withdrawals", Value: strconv.Itoa(s.Withdrawals)},
		output.Field{Name: "Needing your vote", Value: strconv.Itoa(s.NeedingYourVote)},
	)
	return formatter.PrintFields(fields)
}

func runMultispendWithdrawals(cmd *cobra.Command, _ []string) error {
	filter, err := multispend.ParseFilter(multispendFilter)
	if err != nil {
		return err
	}
	room, err := loadRoom(cmd)
	if err != nil {
		return err
	}

	reqs := multispend.FilterWithdrawalRequests(room.Withdrawals, filter, room.GroupStatus, room.CurrentUser)
	views := output.WithdrawalViews(reqs, room.GroupStatus, room.CurrentUser)
	if len(views) == 0 && !formatter.IsJSON() {
		outln(cmd.OutOrStdout(), "No withdrawal requests.")
		return nil
	}
	return output.RenderWithdrawals(formatter, views)
}

func runMultispendWithdrawal(cmd *cobra.Command, args []string) error {
	room, err := loadRoom(cmd)
	if err != nil {
		return err
	}

	for _, req := range room.Withdrawals {
		if req.ID != args[0] {
			continue
		}
		view := output.WithdrawalViews([]multispend.WithdrawalRequest{req}, room.GroupStatus, room.CurrentUser)[0]
		if formatter.IsJSON() {
			return formatter.Print(view)
		}
		fields := []output.Field{
			{Name: "ID", Value: view.ID},
			{Name: "Sender", Value: view.Sender},
			{Name: "Amount", Value: output.FormatMsats(view.Amount)},
			{Name: "Status", Value: string(view.Status)},
			{Name: "Approvals", Value: fmt.Sprintf("%d of %d needed", view.Votes.Approvals, view.Votes.Threshold)},
			{Name: "Rejections", Value: strconv.Itoa(view.Votes.Rejections)},
			{Name: "Not voted", Value: strconv.Itoa(view.Votes.Remaining)},
			{Name: "You voted", Value: yesNo(view.HasVoted)},
		}
		if req.Event.Description != "" {
			fields = append(fields, output.Field{Name: "Description", Value: req.Event.Description})
		}
		return formatter.PrintFields(fields)
	}

	return fedierr.WithDetails(fedierr.ErrNotFound, map[string]string{"withdrawal": args[0]})
}

func runMultispendInvitations(cmd *cobra.Command, _ []string) error {
	room, err := loadRoom(cmd)
	if err != nil {
		return err
	}

	data := room.InvitationData()
	if len(data) == 0 && !formatter.IsJSON() {
		outln(cmd.OutOrStdout(), "No group invitations.")
		return nil
	}
	return output.RenderInvitations(formatter, data)
}

func federationLabel(s groupSummary) string {
	switch {
	case s.FederationName != "" && s.FederationID != "":
		return fmt.Sprintf("%s (%s)", s.FederationName, s.FederationID)
	case s.FederationName != "":
		return s.FederationName
	default:
		return s.FederationID
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
