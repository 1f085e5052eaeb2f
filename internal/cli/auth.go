package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
)

func newLoginCommand(opts *RootOptions) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a dashboard session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd.OutOrStdout())
			if password == "" {
				password = os.Getenv("DASHCTL_PASSWORD")
			}
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return out.Failure(fmt.Errorf("read password: %w", err))
				}
				password = strings.TrimRight(line, "\r\n")
			}

			var env struct {
				Data models.LoginResponse `json:"data"`
			}
			creds := models.Credentials{Username: username, Password: password}
			if err := opts.gateway().PostJSON(cmd.Context(), upstream.Public, "/auth/login", creds, &env); err != nil {
				return out.Failure(err)
			}
			if err := saveToken(opts.TokenFile, env.Data.Token); err != nil {
				return out.Failure(err)
			}
			opts.logger.Debug("session token stored", zap.String("path", opts.TokenFile))
			return out.Success(env.Data.User, func(w io.Writer) {
				fmt.Fprintf(w, "Logged in as %s (%s)\n", env.Data.User.FullName, env.Data.User.Email)
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password (or DASHCTL_PASSWORD, or stdin)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the dashboard session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd.OutOrStdout())
			ctx, err := opts.authed(cmd.Context())
			if err != nil {
				return out.Failure(err)
			}
			// the local token goes even when the gateway has already forgotten the session
			callErr := opts.gateway().PostJSON(ctx, upstream.Bearer, "/auth/logout", nil, nil)
			if err := os.Remove(opts.TokenFile); err != nil && !os.IsNotExist(err) {
				return out.Failure(fmt.Errorf("remove token file: %w", err))
			}
			if callErr != nil {
				opts.logger.Warn("gateway logout failed", zap.Error(callErr))
			}
			return out.Success(map[string]bool{"logged_out": true}, func(w io.Writer) {
				fmt.Fprintln(w, "Logged out")
			})
		},
	}
}
