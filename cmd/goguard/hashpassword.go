package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goGuard/password"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "hash-password prints the argon2id hash of a password",
	Long:  `Reads the password from --password or the first line of stdin and prints the PHC encoded hash stored in password_hash columns.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, _ := cmd.Flags().GetString("password")
		return hashPassword(cmd.InOrStdin(), cmd.OutOrStdout(), pw)
	},
}

func init() {
	hashPasswordCmd.Flags().String("password", "", "password to hash; read from stdin when empty")
	rootCmd.AddCommand(hashPasswordCmd)
}

func hashPassword(in io.Reader, out io.Writer, pw string) error {
	if pw == "" {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		pw = strings.TrimRight(line, "\r\n")
	}

	hasher, err := password.NewHasher(password.DefaultParams())
	if err != nil {
		return err
	}
	encoded, err := hasher.Hash(pw)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, encoded)
	return err
}
