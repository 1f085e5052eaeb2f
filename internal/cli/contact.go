package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
)

func newContactCommand(opts *RootOptions) *cobra.Command {
	var (
		msg                models.ContactMessage
		telegram, whatsapp string
	)
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message through the public contact form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd.OutOrStdout())
			if telegram != "" {
				msg.TelegramUsername = &telegram
			}
			if whatsapp != "" {
				msg.WhatsappNumber = &whatsapp
			}
			var env struct {
				Data models.ContactSuccess `json:"data"`
			}
			if err := opts.gateway().PostJSON(cmd.Context(), upstream.Public, "/contact", msg, &env); err != nil {
				return out.Failure(err)
			}
			return out.Success(env.Data, func(w io.Writer) {
				fmt.Fprintln(w, env.Data.Message)
			})
		},
	}
	cmd.Flags().StringVar(&msg.Name, "name", "", "your name")
	cmd.Flags().StringVar(&msg.Email, "email", "", "reply address")
	cmd.Flags().StringVar(&msg.Subject, "subject", "", "subject line")
	cmd.Flags().StringVar(&msg.Message, "message", "", "message body")
	cmd.Flags().StringVar(&telegram, "telegram", "", "telegram username (optional)")
	cmd.Flags().StringVar(&whatsapp, "whatsapp", "", "whatsapp number (optional)")
	return cmd
}
