package cli

import (
	"bufio"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipline/internal/ports/adapters/deepgram"
	"github.com/forPelevin/clipline/internal/ports/adapters/gemini"
	"github.com/forPelevin/clipline/internal/ports/adapters/openrouter"
	"github.com/forPelevin/clipline/internal/ports/adapters/secrets"
	"github.com/forPelevin/clipline/internal/types"
)

var knownSecretKeys = []string{gemini.CredentialKey, openrouter.CredentialKey, deepgram.CredentialKey}

func newSecretsCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage API keys in the secrets file",
		Long:  "Keys: " + strings.Join(knownSecretKeys, ", ") + ". Environment variables of the same name take precedence.",
	}
	cmd.AddCommand(newSecretsSetCommand(cc), newSecretsDeleteCommand(cc), newSecretsListCommand(cc))
	return cmd
}

func (cc *commandContext) secretsStore() (*secrets.Store, error) {
	cfg, err := cc.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Paths.SecretsFile == "" {
		return nil, fmt.Errorf("%w: paths.secrets_file is empty", types.ErrConfiguration)
	}
	return secrets.New(cfg.Paths.SecretsFile), nil
}

func secretKey(arg string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(arg))
	if !slices.Contains(knownSecretKeys, key) {
		return "", fmt.Errorf("%w: unknown key %q (want one of %s)", types.ErrValidation, arg, strings.Join(knownSecretKeys, ", "))
	}
	return key, nil
}

func newSecretsSetCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <KEY> [value]",
		Short: "Store a key; the value is read from stdin when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := secretKey(args[0])
			if err != nil {
				return err
			}
			var value string
			if len(args) == 2 {
				value = args[1]
			} else {
				sc := bufio.NewScanner(cmd.InOrStdin())
				if sc.Scan() {
					value = sc.Text()
				}
				if err := sc.Err(); err != nil {
					return fmt.Errorf("read value: %w", err)
				}
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return fmt.Errorf("%w: empty value for %s", types.ErrValidation, key)
			}

			store, err := cc.secretsStore()
			if err != nil {
				return err
			}
			if err := store.Set(key, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", key, store.Path())
			if store.InEnv(key) {
				fmt.Fprintf(cmd.ErrOrStderr(), "note: %s is also set in the environment, which takes precedence\n", key)
			}
			return nil
		},
	}
}

func newSecretsDeleteCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <KEY>",
		Short: "Remove a key from the secrets file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := secretKey(args[0])
			if err != nil {
				return err
			}
			store, err := cc.secretsStore()
			if err != nil {
				return err
			}
			if err := store.Delete(key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", key)
			return nil
		},
	}
}

func newSecretsListCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show which keys are configured (values are never printed)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cc.secretsStore()
			if err != nil {
				return err
			}
			stored, err := store.Keys()
			if err != nil {
				return err
			}
			keys := append([]string(nil), knownSecretKeys...)
			for _, k := range stored {
				if !slices.Contains(keys, k) {
					keys = append(keys, k)
				}
			}
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				source := "unset"
				switch {
				case store.InEnv(k):
					source = "env"
				case slices.Contains(stored, k):
					source = "file"
				}
				rows = append(rows, []string{k, source})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"KEY", "SOURCE"}, rows, nil))
			return nil
		},
	}
}
