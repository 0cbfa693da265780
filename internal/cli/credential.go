package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/planbatch/internal/credential"
)

// promptSecret asks for a secret without echoing it. Tests replace it.
var promptSecret = func(key string) (string, error) {
	var value string
	err := huh.NewInput().
		Title(fmt.Sprintf("Value for %s", key)).
		EchoMode(huh.EchoModePassword).
		Value(&value).
		Run()
	return value, err
}

var (
	credentialSet    = credential.Set
	credentialDelete = credential.Delete
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage secrets stored in the OS keyring",
	Long: fmt.Sprintf(`Store or remove secrets in the OS keyring. Known keys: %s.

A value in the config file or environment takes precedence over the keyring.`,
		strings.Join(credential.Keys, ", ")),
}

var credentialSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a secret; prompts when the value is omitted",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !credential.IsKnown(key) {
			return fmt.Errorf("unknown credential %q (known: %s)", key, strings.Join(credential.Keys, ", "))
		}

		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			v, err := promptSecret(key)
			if err != nil {
				return err
			}
			value = v
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return fmt.Errorf("empty value for %s", key)
		}

		if err := credentialSet(key, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s in the keyring.\n", key)
		return nil
	},
}

var credentialDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Remove a secret from the keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !credential.IsKnown(key) {
			return fmt.Errorf("unknown credential %q (known: %s)", key, strings.Join(credential.Keys, ", "))
		}
		if err := credentialDelete(key); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from the keyring.\n", key)
		return nil
	},
}

func init() {
	credentialCmd.AddCommand(credentialSetCmd, credentialDeleteCmd)
	rootCmd.AddCommand(credentialCmd)
}
