package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fap-client/internal/domain"
	"fap-client/internal/usecase"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Sign in with email and password. Missing values are prompted for.

Examples:
  fapctl login
  fapctl login --email alice@example.com`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account on the identity service. Registration does not sign in;
run 'fapctl login' afterwards.

Examples:
  fapctl register --username alice --email alice@example.com \
    --city Berlin --zip 10115 --street Main --house-number 1 --mobile 0123456`,
	Args: cobra.NoArgs,
	RunE: runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in identity",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, whoamiCmd)

	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password (prompted when omitted)")

	registerCmd.Flags().String("username", "", "username (at least 3 characters)")
	registerCmd.Flags().String("email", "", "email address")
	registerCmd.Flags().String("password", "", "password (prompted when omitted)")
	registerCmd.Flags().String("city", "", "city")
	registerCmd.Flags().String("zip", "", "zip code")
	registerCmd.Flags().String("street", "", "street")
	registerCmd.Flags().String("house-number", "", "house number")
	registerCmd.Flags().String("mobile", "", "mobile number")

	whoamiCmd.Flags().Bool("json", false, "output as JSON")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	printer := newPrinter(cmd)
	p := newPrompter(cmd)

	email, err := flagOrPrompt(cmd, p, "email", "Email", false)
	if err != nil {
		return err
	}
	password, err := flagOrPrompt(cmd, p, "password", "Password", true)
	if err != nil {
		return err
	}

	c, err := requireContainer(ctx)
	if err != nil {
		return err
	}
	result, err := c.Session.Login(ctx, email, password)
	if err != nil {
		return err
	}

	printer.Success("Signed in as %s", printer.Bold(displayName(result.State.User)))
	if exp, ok := c.Session.Expiry(); ok {
		printer.Info("Session expires %s", exp.Local().Format(time.RFC1123))
	}
	printer.PrintHints("login")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)
	c, err := requireContainer(cmd.Context())
	if err != nil {
		return err
	}
	if !c.Session.State().IsAuthenticated {
		printer.Info("Not signed in")
		return nil
	}
	c.Logout(cmd.Context())
	printer.Success("Signed out")
	printer.PrintHints("logout")
	return nil
}

// promptField binds a register flag to a profile field.
type promptField struct {
	flag   string
	label  string
	secret bool
	dst    *string
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	printer := newPrinter(cmd)
	p := newPrompter(cmd)

	var profile domain.Profile
	fields := []promptField{
		{"username", "Username", false, &profile.Username},
		{"email", "Email", false, &profile.Email},
		{"password", "Password", true, &profile.Password},
		{"city", "City", false, &profile.City},
		{"zip", "Zip code", false, &profile.ZipCode},
		{"street", "Street", false, &profile.Street},
		{"house-number", "House number", false, &profile.HouseNumber},
		{"mobile", "Mobile", false, &profile.Mobile},
	}
	for _, f := range fields {
		v, err := flagOrPrompt(cmd, p, f.flag, f.label, f.secret)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	c, err := requireContainer(ctx)
	if err != nil {
		return err
	}

	if taken(cmd, c.Prober, usecase.FieldUsername, profile.Username) {
		printer.Warning("Username %q is already taken", profile.Username)
	}
	if taken(cmd, c.Prober, usecase.FieldEmail, profile.Email) {
		printer.Warning("Email %q is already registered", profile.Email)
	}

	user, err := c.Session.Register(ctx, profile)
	if err != nil {
		return err
	}
	printer.Success("Registered %s (id %d)", printer.Bold(user.Username), user.ID)
	printer.PrintHints("register")
	return nil
}

// taken reports a plausible value the identity service already knows.
// Probe failures are left for the registration call to surface.
func taken(cmd *cobra.Command, prober *usecase.AvailabilityProber, field usecase.ProbeField, value string) bool {
	if !prober.Plausible(field, value) {
		return false
	}
	available, err := prober.Probe(cmd.Context(), field, value)
	return err == nil && !available
}

type whoamiOutput struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
}

func runWhoami(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)
	jsonOutput, _ := cmd.Flags().GetBool("json")

	c, err := requireSession(cmd.Context())
	if err != nil {
		if jsonOutput && errors.Is(err, domain.ErrNotAuthenticated) {
			return writeJSON(cmd, whoamiOutput{})
		}
		return err
	}

	st := c.Session.State()
	out := whoamiOutput{Authenticated: true, User: st.User}
	if exp, ok := c.Session.Expiry(); ok {
		out.ExpiresAt = &exp
	}
	if jsonOutput {
		return writeJSON(cmd, out)
	}

	printer.Header("Signed in")
	table := printer.NewTable([]string{"FIELD", "VALUE"})
	table.AddRow([]string{"id", fmt.Sprintf("%d", st.User.ID)})
	table.AddRow([]string{"username", printer.Bold(st.User.Username)})
	table.AddRow([]string{"email", st.User.Email})
	if out.ExpiresAt != nil {
		table.AddRow([]string{"expires", out.ExpiresAt.Local().Format(time.RFC1123)})
	}
	if err := table.Render(); err != nil {
		return err
	}
	printer.PrintHints("whoami")
	return nil
}

func displayName(u *domain.User) string {
	if u == nil {
		return "unknown"
	}
	switch {
	case u.Username != "":
		return u.Username
	case u.Email != "":
		return u.Email
	}
	return fmt.Sprintf("user %d", u.ID)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
