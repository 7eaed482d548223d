package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/sitetokens/health"
	"github.com/jonwraymond/sitetokens/service"
)

var errUnhealthy = errors.New("service is unhealthy")

func (c *CLI) newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run every health check once and print the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(svc *service.Service) error {
				agg := svc.Health()
				results := agg.CheckAll(cmd.Context())
				w := cmd.OutOrStdout()
				for _, r := range agg.Ordered(results) {
					if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Status, r.Message); err != nil {
						return err
					}
				}
				if health.OverallStatus(results) == health.StatusUnhealthy {
					return errUnhealthy
				}
				return nil
			})
		},
	}
}
