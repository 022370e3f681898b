package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevenofnine/virtual-calendar/internal/security"
)

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token <token>",
	Short: "Print the argon2id hash of an API token for token_hash config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "" {
			return errors.New("token must not be empty")
		}
		encoded, err := security.HashToken(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), encoded)
		return nil
	},
}
