package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atinyakov/chatdemo/internal/models"
)

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		cfgPath string
		verbose bool
		a       *app
	)

	root := &cobra.Command{
		Use:           "chatdemo",
		Short:         "Chat demo client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			level := "warn"
			if verbose {
				level = "debug"
			}
			var err error
			a, err = newApp(cfgPath, level, out)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.yaml")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	get := func() *app { return a }
	root.AddCommand(
		registerCmd(get),
		loginCmd(get),
		loginPhoneCmd(get),
		sendCodeCmd(get),
		logoutCmd(get),
		hydrateCmd(get),
		sendCmd(get),
		forwardCmd(get),
		combineCmd(get),
		editCmd(get),
		versionCmd(out),
	)
	return root
}

func registerCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register <user> <password>",
		Short: "Create a chat account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a().boot.Register(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", id)
			return nil
		},
	}
}

func loginCmd(a func() *app) *cobra.Command {
	var token bool
	cmd := &cobra.Command{
		Use:   "login <user> <password|token>",
		Short: "Log in to chat with a password or an auth server token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := models.Credentials{Identifier: args[0], Secret: args[1], Mode: models.ModePassword}
			if token {
				creds.Mode = models.ModeToken
			}
			user, err := a().boot.Login(creds.Identifier, creds.Secret, creds.Mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", user.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&token, "token", false, "treat the secret as a login token")
	return cmd
}

func loginPhoneCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login-phone <phone> <code>",
		Short: "Log in with an SMS verification code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a().boot.LoginFromServer(cmdContext(cmd), args[0], args[1])
			if err != nil {
				return err
			}
			creds := models.Credentials{Identifier: res.Username, Secret: res.Token, Mode: models.ModeToken}
			user, err := a().boot.Login(creds.Identifier, creds.Secret, creds.Mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", user.ID)
			return nil
		},
	}
}

func sendCodeCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send-code <phone>",
		Short: "Request an SMS verification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a().boot.GetVerificationCode(cmdContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "code sent")
			return nil
		},
	}
}

func logoutCmd(a func() *app) *cobra.Command {
	var unbind bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the chat session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a().boot.Logout(unbind); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
	cmd.Flags().BoolVar(&unbind, "unbind", true, "unbind the push device token")
	return cmd
}

func hydrateCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hydrate",
		Short: "Load cached conversations and groups of the previous session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a().boot.EnsureHydrated(); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, c := range a().provider.Conversations() {
				fmt.Fprintf(w, "conversation %s (%d messages)\n", c.ID, len(c.Messages))
				for _, m := range c.Messages {
					fmt.Fprintf(w, "  %s %s: %s\n", m.ID, m.From, m.Body)
				}
			}
			for _, g := range a().provider.Groups() {
				fmt.Fprintf(w, "group %s %s\n", g.ID, g.Name)
			}
			typing := "off"
			if a().screen.TypingMonitor {
				typing = "on"
			}
			fmt.Fprintf(w, "typing indicator %s\n", typing)
			return nil
		},
	}
}

func sendCmd(a func() *app) *cobra.Command {
	var group bool
	cmd := &cobra.Command{
		Use:   "send <to> <text>",
		Short: "Send a text message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a().provider.SendMessage(args[0], strings.Join(args[1:], " "), group)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "the recipient is a group")
	return cmd
}

func forwardCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forward <message-id> <to>",
		Short: "Forward a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a().provider.ForwardMessage(args[0], args[1], a().screen)
			return nil
		},
	}
}

func combineCmd(a func() *app) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "combine <to> <message-id>...",
		Short: "Forward several messages as one combined message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a().provider.SendCombinedMessage(args[1:], args[0], title, a().screen)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "Chat history", "combined message title")
	return cmd
}

func editCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <message-id> <text>",
		Short: "Edit one of your messages",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a().provider.ModifyMessage(args[0], strings.Join(args[1:], " "), a().screen)
			return nil
		},
	}
}

func versionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build version and date",
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(out, "chatdemo client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		},
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
