package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fap-client/internal/app"
	"fap-client/internal/domain"
	"fap-client/internal/output"
)

var friendsCmd = &cobra.Command{
	Use:   "friends",
	Short: "Manage friends and friend requests",
	Long: `List friends, discover people and answer friend requests.

Examples:
  fapctl friends list          # Current friends
  fapctl friends requests      # Received and sent requests
  fapctl friends discover      # People you can add
  fapctl friends add 42        # Send a request to user 42
  fapctl friends accept 7      # Accept request 7
  fapctl friends remove 42     # End the friendship with user 42`,
}

var friendsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List friends",
	Args:    cobra.NoArgs,
	RunE:    runFriendsList,
}

var friendsRequestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List received and sent friend requests",
	Args:  cobra.NoArgs,
	RunE:  runFriendsRequests,
}

var friendsDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List people you can send a request to",
	Args:  cobra.NoArgs,
	RunE:  runFriendsDiscover,
}

var friendsAddCmd = &cobra.Command{
	Use:   "add <user-id>",
	Short: "Send a friend request",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, "friends add", args[0], func(ctx context.Context, c *app.Container, id int64) (*domain.FriendRequest, error) {
			return c.Friends.Create(ctx, id)
		})
	},
}

var friendsAcceptCmd = &cobra.Command{
	Use:   "accept <request-id>",
	Short: "Accept a received request",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, "friends accept", args[0], func(ctx context.Context, c *app.Container, id int64) (*domain.FriendRequest, error) {
			return c.Friends.Accept(ctx, id)
		})
	},
}

var friendsDeclineCmd = &cobra.Command{
	Use:   "decline <request-id>",
	Short: "Decline a received request",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, "friends decline", args[0], func(ctx context.Context, c *app.Container, id int64) (*domain.FriendRequest, error) {
			return c.Friends.Decline(ctx, id)
		})
	},
}

var friendsCancelCmd = &cobra.Command{
	Use:   "cancel <request-id>",
	Short: "Withdraw a sent request",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, "friends cancel", args[0], func(ctx context.Context, c *app.Container, id int64) (*domain.FriendRequest, error) {
			return c.Friends.Cancel(ctx, id)
		})
	},
}

var friendsRemoveCmd = &cobra.Command{
	Use:   "remove <user-id>",
	Short: "End a friendship",
	Args:  exactArgs(1),
	RunE:  runFriendsRemove,
}

func init() {
	rootCmd.AddCommand(friendsCmd)
	friendsCmd.AddCommand(
		friendsListCmd,
		friendsRequestsCmd,
		friendsDiscoverCmd,
		friendsAddCmd,
		friendsAcceptCmd,
		friendsDeclineCmd,
		friendsCancelCmd,
		friendsRemoveCmd,
	)

	friendsCmd.PersistentFlags().Bool("json", false, "output as JSON")
	friendsRemoveCmd.Flags().BoolP("yes", "y", false, "remove without asking for confirmation")
}

// loadProjection requires a session and fetches the relationship lists.
func loadProjection(cmd *cobra.Command) (*app.Container, domain.Projection, error) {
	c, err := requireSession(cmd.Context())
	if err != nil {
		return nil, domain.Projection{}, err
	}
	p, err := c.Friends.LoadAll(cmd.Context())
	if err != nil {
		return nil, domain.Projection{}, err
	}
	return c, p, nil
}

func runFriendsList(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)
	_, p, err := loadProjection(cmd)
	if err != nil {
		return err
	}
	if jsonFlag(cmd) {
		return writeJSON(cmd, p.Friends)
	}

	printer.Header(fmt.Sprintf("Friends (%d)", len(p.Friends)))
	if len(p.Friends) == 0 {
		printer.Info("No friends yet")
		printer.PrintHints("friends discover")
		return nil
	}
	if err := renderUsers(printer, p.Friends); err != nil {
		return err
	}
	printer.PrintHints("friends list")
	return nil
}

func runFriendsDiscover(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)
	_, p, err := loadProjection(cmd)
	if err != nil {
		return err
	}
	if jsonFlag(cmd) {
		return writeJSON(cmd, p.Discoverable)
	}

	printer.Header(fmt.Sprintf("People you may know (%d)", len(p.Discoverable)))
	if len(p.Discoverable) == 0 {
		printer.Info("Nobody new to add")
		return nil
	}
	if err := renderUsers(printer, p.Discoverable); err != nil {
		return err
	}
	printer.PrintHints("friends discover")
	return nil
}

type requestsOutput struct {
	Received []domain.FriendRequest `json:"received"`
	Sent     []domain.FriendRequest `json:"sent"`
}

func runFriendsRequests(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)
	_, p, err := loadProjection(cmd)
	if err != nil {
		return err
	}
	if jsonFlag(cmd) {
		return writeJSON(cmd, requestsOutput{Received: p.ReceivedRequests, Sent: p.SentRequests})
	}

	printer.Header(fmt.Sprintf("Received (%d)", len(p.ReceivedRequests)))
	if err := renderRequests(printer, p.ReceivedRequests, func(r domain.FriendRequest) domain.User { return r.Sender }, "FROM"); err != nil {
		return err
	}
	printer.Header(fmt.Sprintf("Sent (%d)", len(p.SentRequests)))
	if err := renderRequests(printer, p.SentRequests, func(r domain.FriendRequest) domain.User { return r.Receiver }, "TO"); err != nil {
		return err
	}
	printer.PrintHints("friends requests")
	return nil
}

type mutationFunc func(ctx context.Context, c *app.Container, id int64) (*domain.FriendRequest, error)

// runMutation applies one relationship change. A reload failure after a
// successful change is reported as a warning, not as a failed command.
func runMutation(cmd *cobra.Command, name, rawID string, fn mutationFunc) error {
	printer := newPrinter(cmd)
	id, err := parseID(cmd, rawID)
	if err != nil {
		return err
	}
	c, err := requireSession(cmd.Context())
	if err != nil {
		return err
	}

	req, err := fn(cmd.Context(), c, id)
	if err != nil {
		if !errors.Is(err, domain.ErrProjectionUnavailable) {
			return err
		}
		printer.Warning("Change applied but the friend lists could not be refreshed")
	}

	if jsonFlag(cmd) {
		return writeJSON(cmd, req)
	}
	if req != nil {
		printer.Success("Request %d %s (%s -> %s)", req.ID, printer.StatusBadge(req.Status),
			displayName(&req.Sender), displayName(&req.Receiver))
	}
	printer.PrintHints(name)
	return nil
}

func runFriendsRemove(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)
	id, err := parseID(cmd, args[0])
	if err != nil {
		return err
	}
	c, err := requireSession(cmd.Context())
	if err != nil {
		return err
	}
	if _, err := c.Friends.LoadAll(cmd.Context()); err != nil {
		log.Debug("could not load friends before removal", "error", err)
	}

	yes, _ := cmd.Flags().GetBool("yes")
	prompt := newPrompter(cmd)
	confirm := func(_ context.Context, friend domain.User) bool {
		if yes {
			return true
		}
		return prompt.Confirm(fmt.Sprintf("Remove %s from your friends?", displayName(&friend)))
	}

	err = c.Friends.Remove(cmd.Context(), id, confirm)
	switch {
	case errors.Is(err, domain.ErrNotConfirmed):
		printer.Info("Kept friend %d", id)
		return nil
	case errors.Is(err, domain.ErrProjectionUnavailable):
		printer.Warning("Friend removed but the friend lists could not be refreshed")
	case err != nil:
		return err
	}
	printer.Success("Removed friend %d", id)
	return nil
}

func renderUsers(printer *output.Printer, users []domain.User) error {
	table := printer.NewTable([]string{"ID", "USERNAME", "EMAIL", "CITY"})
	for _, u := range users {
		table.AddRow([]string{strconv.FormatInt(u.ID, 10), printer.Bold(u.Username), u.Email, u.City})
	}
	return table.Render()
}

func renderRequests(printer *output.Printer, reqs []domain.FriendRequest, party func(domain.FriendRequest) domain.User, partyHeader string) error {
	if len(reqs) == 0 {
		printer.Print("  none")
		return nil
	}
	table := printer.NewTable([]string{"ID", partyHeader, "STATUS", "SENT"})
	for _, r := range reqs {
		u := party(r)
		table.AddRow([]string{
			strconv.FormatInt(r.ID, 10),
			printer.Bold(displayName(&u)),
			printer.StatusBadge(r.Status),
			formatTime(r.RequestTime),
		})
	}
	return table.Render()
}

func formatTime(ts domain.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(time.DateTime)
}

func parseID(cmd *cobra.Command, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError(cmd, fmt.Errorf("invalid id %q: must be a positive integer", raw))
	}
	return id, nil
}

func jsonFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
