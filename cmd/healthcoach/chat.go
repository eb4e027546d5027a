package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ashureev/healthcoach/internal/cli"
	"github.com/ashureev/healthcoach/internal/domain"
	"github.com/ashureev/healthcoach/internal/identity"
)

func addServerFlag(cmd *cobra.Command, server *string) {
	cmd.Flags().StringVar(server, "server", envOr("HEALTHCOACH_SERVER", "http://localhost:5000"), "coach API base URL")
}

func newChatCommand() *cobra.Command {
	var server, email, language string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask the coach questions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if language != "" {
				if _, err := domain.ParseLanguage(language); err != nil {
					return err
				}
			}
			client := cli.NewAPIClient(server, identity.NewSessionID())
			return cli.NewChat(client, os.Stdin, cmd.OutOrStdout(), language).Run(cmd.Context(), email)
		},
	}
	addServerFlag(cmd, &server)
	cmd.Flags().StringVar(&email, "email", "", "learner email; asked for when empty")
	cmd.Flags().StringVar(&language, "language", "", fmt.Sprintf("audio language (%s or %s); server default when empty",
		domain.LanguageEnglish, domain.LanguageBengali))
	return cmd
}

func newPromptCommand() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "prompt EMAIL",
		Short: "Print the personalized question for a learner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := cli.NewAPIClient(server, identity.NewSessionID())
			res, err := client.FetchUser(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetch %s: %w", args[0], err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.PersonalizedQuestion)
			return err
		},
	}
	addServerFlag(cmd, &server)
	return cmd
}
