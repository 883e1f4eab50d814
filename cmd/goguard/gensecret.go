package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goGuard/vault"
)

var genSecretCmd = &cobra.Command{
	Use:   "gen-secret",
	Short: "gen-secret prints a random value for GOGUARD_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("bytes")
		return genSecret(cmd.OutOrStdout(), n)
	},
}

func init() {
	genSecretCmd.Flags().Int("bytes", 64, "random bytes before encoding")
	rootCmd.AddCommand(genSecretCmd)
}

func genSecret(out io.Writer, n int) error {
	// base64 grows by 4/3, so 48 bytes is the smallest input reaching the minimum.
	if least := vault.MinSecretLength * 3 / 4; n < least {
		return fmt.Errorf("--bytes must be at least %d", least)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("read random: %w", err)
	}
	_, err := fmt.Fprintln(out, base64.RawURLEncoding.EncodeToString(buf))
	return err
}
