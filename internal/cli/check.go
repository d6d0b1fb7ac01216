package cli

import (
	"github.com/spf13/cobra"

	"fap-client/internal/usecase"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a username or email is still free",
}

var checkUsernameCmd = &cobra.Command{
	Use:   "username <name>",
	Short: "Check username availability",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, usecase.FieldUsername, args[0])
	},
}

var checkEmailCmd = &cobra.Command{
	Use:   "email <address>",
	Short: "Check email availability",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, usecase.FieldEmail, args[0])
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.AddCommand(checkUsernameCmd, checkEmailCmd)

	checkCmd.PersistentFlags().Bool("json", false, "output as JSON")
}

type checkOutput struct {
	Field     usecase.ProbeField `json:"field"`
	Value     string             `json:"value"`
	Available bool               `json:"available"`
}

func runCheck(cmd *cobra.Command, field usecase.ProbeField, value string) error {
	printer := newPrinter(cmd)
	jsonOutput, _ := cmd.Flags().GetBool("json")

	c, err := requireContainer(cmd.Context())
	if err != nil {
		return err
	}

	plausible := c.Prober.Plausible(field, value)
	available, err := c.Prober.Probe(cmd.Context(), field, value)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd, checkOutput{Field: field, Value: value, Available: available})
	}
	switch {
	case !plausible:
		printer.Warning("%q is not a valid %s", value, field)
	case available:
		printer.Success("%s %q is available", field, value)
	default:
		printer.Warning("%s %q is already taken", field, value)
	}
	return nil
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(cmd, err)
		}
		return nil
	}
}
