package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/clicafe/clicafe/pkg/gateway"
)

func newLoginCommand(f *flags) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session for the shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if cfg.Offline {
				return errors.New("login needs a server; set CLICAFE_API_URL")
			}
			if err := initLogging(cfg, "stderr"); err != nil {
				return err
			}

			if email == "" {
				fmt.Print("Email: ")
				line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				email = strings.TrimSpace(line)
			}
			fmt.Print("Password: ")
			password, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			client := newGateway(cfg, nil)
			resp, err := client.Login(context.Background(), email, string(password))
			if err != nil {
				if gateway.IsStatus(err, 401) || gateway.IsStatus(err, 400) {
					return errors.New("invalid credentials")
				}
				return err
			}

			tf := &gateway.TokenFile{
				Access:    resp.Access,
				Refresh:   resp.Refresh,
				ExpiresAt: gateway.TokenExpiry(resp.Access),
				Server:    cfg.APIURL,
				Email:     email,
				Name:      resp.UserProfile.Name,
				LastLogin: time.Now(),
			}
			if err := gateway.SaveToken(cfg.TokenFile, tf); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Printf("Welcome, %s! Session saved to %s\n", resp.UserProfile.DisplayName(), cfg.TokenFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	return cmd
}

func newLogoutCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if err := gateway.DeleteToken(cfg.TokenFile); err != nil {
				return err
			}
			fmt.Println("Logged out successfully")
			return nil
		},
	}
}
