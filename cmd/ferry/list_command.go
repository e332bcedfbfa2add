package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ferry/internal/ipc"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var listAll bool
	var listStates []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.UploadList(ipc.UploadListRequest{
					All:    listAll,
					States: listStates,
				})
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp.Uploads)
				}
				if len(resp.Uploads) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No uploads")
					return nil
				}
				table := renderTable(
					[]string{"ID", "File", "Destination", "State", "Progress", "Speed", "ETA", "Size"},
					buildUploadRows(resp.Uploads),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include finished uploads")
	cmd.Flags().StringSliceVarP(&listStates, "state", "s", nil, "Filter by upload state (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit uploads as JSON")
	return cmd
}
