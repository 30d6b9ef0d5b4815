// cmd/server/token.go
package main

import (
	"fmt"

	"github.com/natuspati/jeopardy/internal/auth"
	"github.com/spf13/cobra"
)

// newTokenCmd mints a token for local testing. It only makes sense with the
// same key pair the server is started with.
func newTokenCmd(cfg *Config) *cobra.Command {
	var id auth.Identity

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed auth token for a user.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.jwtPrivateKey == "" {
				return fmt.Errorf("token requires --jwt-private-key and --jwt-public-key")
			}
			if id.UserID <= 0 || id.Username == "" {
				return fmt.Errorf("both --user-id and --username are required")
			}
			issuer, err := cfg.issuer()
			if err != nil {
				return err
			}
			tok, err := issuer.CreateJWT(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().IntVar(&id.UserID, "user-id", 0, "user id placed in the token subject")
	cmd.Flags().StringVar(&id.Username, "username", "", "username claim")
	return cmd
}
