package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"axolotld/internal/services/identity"
	"axolotld/internal/store"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print identity fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			fp, err := identity.New(store.NewIdentityFileStore(cfg.Server.DataDir)).FingerprintIdentity(passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", fp)
			return nil
		},
	}
}
