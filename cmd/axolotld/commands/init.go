package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"axolotld/internal/config"
	"axolotld/internal/services/identity"
	"axolotld/internal/store"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate the identity key and a default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.Server.DataDir, 0o700); err != nil {
				return err
			}
			_, fp, err := identity.New(store.NewIdentityFileStore(cfg.Server.DataDir)).GenerateIdentity(passphrase)
			if err != nil {
				return err
			}

			path := filepath.Join(cfg.Server.DataDir, configFilename)
			switch err := config.Store(cfg, path); {
			case err == nil:
				fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
			case errors.Is(err, os.ErrExist):
			default:
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity created.\nFingerprint: %s\n", fp)
			return nil
		},
	}
}
