package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/notification-center/internal/credential"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the API token in the system keyring",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var token string
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("API token").
				EchoMode(huh.EchoModePassword).
				Value(&token).
				Validate(validateToken),
		))
		if err := form.Run(); err != nil {
			return err
		}

		token = strings.TrimSpace(token)
		if err := credential.SaveToken(token); err != nil {
			return err
		}
		sess, err := session.FromToken(token, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s).\n", sess.User().ID, sess.User().Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the API token from the system keyring",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := credential.ClearToken(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current settings, with defaults filled in, to the config file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := model.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if err := model.SaveConfig(configPath, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

// validateToken accepts only tokens that carry a usable role.
func validateToken(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("token is required")
	}
	if _, err := session.FromToken(s, time.Now()); err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	return nil
}
