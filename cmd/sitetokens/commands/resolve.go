package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/sitetokens/service"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	var (
		path         string
		escapeSpaces bool
	)
	cmd := &cobra.Command{
		Use:   "resolve QUERY",
		Short: "Resolve the tokens in QUERY for a context node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(svc *service.Service) error {
				q, err := svc.ResolvePath(cmd.Context(), args[0], path, escapeSpaces)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), q)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "Full path of the context node")
	cmd.Flags().BoolVar(&escapeSpaces, "escape-spaces", false, "Escape path segments containing spaces or dashes")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func (c *CLI) newFragmentCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "fragment",
		Short: "Print the templates fragment for a context node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(svc *service.Service) error {
				q, err := svc.TemplatesQuery(cmd.Context(), path)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), q)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "Full path of the context node")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}
