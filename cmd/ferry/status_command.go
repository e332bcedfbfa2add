package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ferry/internal/ipc"
	"ferry/internal/records"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and upload status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			status := &ipc.StatusResponse{}
			if client, err := ctx.dialClient(); err == nil {
				if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
					status = resp
				}
				_ = client.Close()
			}

			// Offline fallback: read the counts straight from the database.
			if !status.Running && cfg != nil {
				if store, err := records.Open(cfg); err == nil {
					if stats, err := store.Stats(cmd.Context()); err == nil {
						status.StateCounts = make(map[string]int, len(stats))
						for state, count := range stats {
							status.StateCounts[string(state)] = count
						}
					}
					_ = store.Close()
				}
			}

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if status.Running {
				fmt.Fprintln(stdout, renderStatusLine("Ferry", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
				if status.NetworkOnline {
					fmt.Fprintln(stdout, renderStatusLine("Network", statusOK, "Online", colorize))
				} else {
					fmt.Fprintln(stdout, renderStatusLine("Network", statusWarn, "Offline; uploads paused until reconnect", colorize))
				}
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Ferry", statusWarn, "Not running (run `ferry daemon start`)", colorize))
			}
			if cfg != nil {
				if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
					fmt.Fprintln(stdout, renderStatusLine("Notifications", statusOK, "Configured", colorize))
				} else {
					fmt.Fprintln(stdout, renderStatusLine("Notifications", statusInfo, "Not configured", colorize))
				}
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Uploads", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := buildStateRows(status.StateCounts)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "No uploads")
				return nil
			}
			table := renderTable([]string{"State", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
			fmt.Fprintln(stdout, table)
			return nil
		},
	}
}
