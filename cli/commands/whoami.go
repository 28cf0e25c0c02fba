package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (a *App) newWhoAmICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity used for Bedrock calls",
		Long: `Initialize credentials exactly as chat would and report the resulting
AWS identity. In delegated mode this is the assumed role session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.backend(ctx)
			if err != nil {
				return err
			}

			if err := b.Manager.EnsureReady(ctx); err != nil {
				return err
			}

			cred := b.Manager.Current()
			id, err := b.Broker.WhoAmI(ctx, cred)
			if err != nil {
				return err
			}

			var expires string
			if cred != nil {
				expires = cred.Expires.UTC().Format(time.RFC3339)
			}

			if a.jsonOutput {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]string{
					"mode":    b.Manager.Mode().String(),
					"account": id.Account,
					"arn":     id.ARN,
					"user_id": id.UserID,
					"expires": expires,
				})
			}

			fmt.Fprintf(a.stdout, "mode:    %s\n", b.Manager.Mode())
			fmt.Fprintf(a.stdout, "account: %s\n", id.Account)
			fmt.Fprintf(a.stdout, "arn:     %s\n", id.ARN)
			fmt.Fprintf(a.stdout, "user id: %s\n", id.UserID)
			if expires != "" {
				fmt.Fprintf(a.stdout, "expires: %s\n", expires)
			}
			return nil
		},
	}
}
