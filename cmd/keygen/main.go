package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"relay/internal/keys"
	"relay/internal/platform/config"
)

func main() {
	defaults, err := config.KeysFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := newRootCmd(defaults).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the provisioning command. Paths default to the same
// settings the server reads.
func newRootCmd(defaults config.Keys) *cobra.Command {
	var (
		publicPath string
		secretPath string
		kid        string
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the relay's RSA signing keypair",
		Long: `keygen writes a 2048-bit RSA keypair as JWK-style JSON files.

It never replaces an existing secret key: when one is present at the
destination the command reports it and exits successfully.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if publicPath == "" || secretPath == "" {
				return fmt.Errorf("PUBLIC_KEY_PATH and SECRET_KEY_PATH are required")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Running keygen ...")
			fmt.Fprintf(out, "PUBLIC_KEY_PATH = %q\n", publicPath)
			fmt.Fprintf(out, "SECRET_KEY_PATH = %q\n", secretPath)

			result, err := keys.Provision(secretPath, publicPath, kid)
			if err != nil {
				return err
			}
			if result.AlreadyGenerated {
				fmt.Fprintln(out, "A secret key has already been generated for this service.")
				return nil
			}

			secretJSON, err := json.Marshal(result.Secret)
			if err != nil {
				return err
			}
			publicJSON, err := json.Marshal(result.Public)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Generated secret key = %s\n", secretJSON)
			fmt.Fprintf(out, "Generated public key = %s\n", publicJSON)
			fmt.Fprintln(out, "Success")
			return nil
		},
	}
	cmd.Flags().StringVar(&publicPath, "public-key", defaults.PublicKeyPath, "public key destination (PUBLIC_KEY_PATH)")
	cmd.Flags().StringVar(&secretPath, "secret-key", defaults.SecretKeyPath, "secret key destination (SECRET_KEY_PATH)")
	cmd.Flags().StringVar(&kid, "kid", keys.DefaultKeyID, "key identifier")
	return cmd
}
