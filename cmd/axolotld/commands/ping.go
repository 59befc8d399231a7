package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"axolotld/internal/app"
	"axolotld/internal/log"
)

func pingCmd() *cobra.Command {
	var (
		server  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ping [message...]",
		Short: "Handshake with a server and exchange messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"ping"}
			}
			if server == "" {
				server = "http://" + cfg.Server.Address
			}
			logs, err := log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
			if err != nil {
				return err
			}
			defer logs.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res, err := app.Ping(ctx, server, logs, args...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server fingerprint: %s\n", res.Server)
			for _, r := range res.Replies {
				fmt.Fprintf(out, "< %s\n", r)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "server base URL (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall timeout")
	return cmd
}
