package commands

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"axolotld/internal/config"
)

const (
	configFilename = "axolotld.toml"
	passphraseEnv  = "AXOLOTLD_PASSPHRASE"
)

var (
	dataDir    string
	configFile string
	passphrase string

	cfg *config.Config
)

// Execute runs the root command.
func Execute() error {
	return newRoot().Execute()
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "axolotld",
		Short:        "Double ratchet responder service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dataDir == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				dataDir = filepath.Join(dir, ".axolotld")
			}
			abs, err := filepath.Abs(dataDir)
			if err != nil {
				return err
			}
			dataDir = abs
			if passphrase == "" {
				passphrase = os.Getenv(passphraseEnv)
			}
			return loadConfig()
		},
	}

	root.PersistentFlags().StringVar(&dataDir, "datadir", "", "data directory (default ~/.axolotld)")
	root.PersistentFlags().StringVarP(&configFile, "config", "f", "", "config file (default <datadir>/"+configFilename+")")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the identity (or $"+passphraseEnv+")")

	root.AddCommand(initCmd(), fingerprintCmd(), serveCmd(), pingCmd())
	return root
}

// loadConfig reads the explicit config file, else the one in the data
// directory, else falls back to defaults.
func loadConfig() error {
	path := configFile
	if path == "" {
		path = filepath.Join(dataDir, configFilename)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			c, err := config.Default(dataDir)
			if err != nil {
				return err
			}
			cfg = c
			return nil
		}
	}
	c, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

func requirePassphrase() error {
	if passphrase == "" {
		return errors.New("passphrase required (-p or $" + passphraseEnv + ")")
	}
	return nil
}
