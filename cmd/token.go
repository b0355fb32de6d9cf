package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vasu1712/sceneitem-widget/internal/middleware"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a host token for the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			token, err := middleware.IssueToken(cfg.Server.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "dashboard", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
