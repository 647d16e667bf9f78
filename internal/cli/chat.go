package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the assistant from the terminal",
		Long:  "With a message argument, sends it and prints the reply. Without arguments, starts an interactive conversation.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if len(args) > 0 {
				resp, err := rt.orch.Handle(ctx, userID, strings.Join(args, " "), "")
				if err != nil {
					return err
				}
				fmt.Println(resp.Text)
				return nil
			}

			return interactiveChat(ctx, rt, userID)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "terminal", "user id for the conversation")
	return cmd
}

func interactiveChat(ctx context.Context, rt *runtime, userID string) error {
	fmt.Println("Bonjour ! (ctrl-d to leave)")

	scanner := bufio.NewScanner(os.Stdin)
	sessionID := ""
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/reset" {
			fresh, err := rt.orch.Reset(ctx, userID, sessionID)
			if err != nil {
				return err
			}
			sessionID = fresh
			fmt.Println("(new conversation)")
			continue
		}

		resp, err := rt.orch.Handle(ctx, userID, text, sessionID)
		if err != nil {
			return err
		}
		sessionID = resp.SessionID
		fmt.Println(resp.Text)
	}
}
