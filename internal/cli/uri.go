package cli

import (
	"github.com/spf13/cobra"

	"github.com/fedibtc/fedicore/internal/fediuri"
	"github.com/fedibtc/fedicore/internal/output"
)

// uriCmd is the parent command for fedi: chat links.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var uriCmd = &cobra.Command{
	Use:   "uri",
	Short: "Build and read fedi: chat links",
	Long: `Build fedi: links for Matrix rooms and users, and read any fedi: link
back into its kind and id. Legacy member and group links can be read but
are no longer built.`,
	GroupID: groupClassify,
}

// uriRoomCmd builds a room link.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var uriRoomCmd = &cobra.Command{
	Use:     "room <room-id>",
	Short:   "Build the fedi: link for a Matrix room",
	Long:    `Build the fedi: link that opens a Matrix room such as !abc:m1.8fa.in.`,
	Example: `  fedicore uri room '!abc:m1.8fa.in'`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return encodeLink(cmd, fediuri.EncodeRoom(args[0]), fediuri.DecodeRoom)
	},
}

// uriUserCmd builds a user link.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var uriUserCmd = &cobra.Command{
	Use:     "user <user-id>",
	Short:   "Build the fedi: link for a Matrix user",
	Long:    `Build the fedi: link that opens a chat with a Matrix user such as @bob:m1.8fa.in.`,
	Example: `  fedicore uri user @bob:m1.8fa.in`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return encodeLink(cmd, fediuri.EncodeUser(args[0]), fediuri.DecodeUser)
	},
}

// uriDecodeCmd reads a link.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var uriDecodeCmd = &cobra.Command{
	Use:   "decode <uri>",
	Short: "Print the kind and id of a fedi: link",
	Long: `Decode a fedi: or fedi:// link. Room, user, member and group links are
tried in that order.`,
	Example: `  fedicore uri decode 'fedi:room:!abc:m1.8fa.in:::'
  fedicore uri decode fedi://user:@bob:m1.8fa.in::: -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runURIDecode,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(uriCmd)
	uriCmd.AddCommand(uriRoomCmd, uriUserCmd, uriDecodeCmd)
}

// encodeLink prints link after checking it reads back.
func encodeLink(cmd *cobra.Command, link string, decode func(string) (string, error)) error {
	if _, err := decode(link); err != nil {
		return err
	}
	if formatter.IsJSON() {
		return formatter.Print(map[string]string{"uri": link})
	}
	outln(cmd.OutOrStdout(), link)
	return nil
}

func runURIDecode(_ *cobra.Command, args []string) error {
	kind, id, err := fediuri.Decode(args[0])
	if err != nil {
		return err
	}
	if formatter.IsJSON() {
		return formatter.Print(map[string]string{"kind": string(kind), "id": id})
	}
	return formatter.PrintFields([]output.Field{
		{Name: "Kind", Value: string(kind)},
		{Name: "ID", Value: id},
	})
}
