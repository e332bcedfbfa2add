package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ferry/internal/ipc"
)

func newNotificationsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var clear bool
	var dismiss int64
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show or manage recent notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear && dismiss > 0 {
				return errors.New("specify only one of --clear or --dismiss")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()

				if clear {
					if err := client.NotificationClear(); err != nil {
						return err
					}
					fmt.Fprintln(out, "Notifications cleared")
					return nil
				}
				if dismiss > 0 {
					if err := client.NotificationDismiss(dismiss); err != nil {
						return err
					}
					fmt.Fprintf(out, "Notification %d dismissed\n", dismiss)
					return nil
				}

				resp, err := client.NotificationList(limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp.Notifications)
				}
				if len(resp.Notifications) == 0 {
					fmt.Fprintln(out, "No notifications")
					return nil
				}
				rows := make([][]string, 0, len(resp.Notifications))
				for _, n := range resp.Notifications {
					rows = append(rows, []string{
						strconv.FormatInt(n.ID, 10),
						n.Kind,
						n.Message,
						n.CreatedAt,
					})
				}
				table := renderTable(
					[]string{"ID", "Kind", "Message", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum notifications to show (0 uses the configured live limit)")
	cmd.Flags().BoolVar(&clear, "clear", false, "Remove all notifications")
	cmd.Flags().Int64Var(&dismiss, "dismiss", 0, "Remove one notification by id")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit notifications as JSON")
	return cmd
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					if resp != nil && resp.Message != "" {
						fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
					}
					return err
				}
				if resp == nil {
					return errors.New("missing notification response")
				}
				switch {
				case resp.Message != "":
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				case resp.Sent:
					fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
				}
				return nil
			})
		},
	}
}
