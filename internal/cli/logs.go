package cli

import (
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
)

func newLogsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logs [file]",
		Short: "List log files or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd.OutOrStdout())
			ctx, err := opts.authed(cmd.Context())
			if err != nil {
				return out.Failure(err)
			}

			if len(args) == 0 {
				var env struct {
					Data []string `json:"data"`
				}
				if err := opts.gateway().GetJSON(ctx, upstream.Bearer, "/admin/logs", nil, &env); err != nil {
					return out.Failure(err)
				}
				return out.Success(env.Data, func(w io.Writer) {
					if len(env.Data) == 0 {
						fmt.Fprintln(w, "No log files found.")
						return
					}
					for _, name := range env.Data {
						fmt.Fprintln(w, name)
					}
				})
			}

			if opts.Format == "json" {
				var env struct {
					Data models.LogFile `json:"data"`
				}
				if err := opts.gateway().GetJSON(ctx, upstream.Bearer, "/admin/logs/"+url.PathEscape(args[0]), nil, &env); err != nil {
					return out.Failure(err)
				}
				return out.Success(env.Data, nil)
			}
			content, err := opts.gateway().GetText(ctx, upstream.Bearer, "/admin/logs/"+url.PathEscape(args[0])+"?format=text")
			if err != nil {
				return out.Failure(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		},
	}
}
