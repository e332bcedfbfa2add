package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ferry/internal/config"
	"ferry/internal/ipc"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var owner string
	var destination string
	var mimeType string
	var contextValue string
	var noStart bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Queue a file for upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.UploadAdd(ipc.UploadAddRequest{
					SourcePath:  source,
					OwnerID:     owner,
					Destination: destination,
					MimeType:    mimeType,
					Context:     contextValue,
					Start:       !noStart,
				})
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp.Upload)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued %s as %s\n", resp.Upload.FileName, shortID(resp.Upload.ID))
				if !noStart {
					fmt.Fprintln(out, "Upload started")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner id for the destination namespace (defaults to the configured owner)")
	cmd.Flags().StringVarP(&destination, "dest", "d", "", "Destination path prefix in the object store")
	cmd.Flags().StringVarP(&mimeType, "type", "t", "", "MIME type (derived from the file extension when omitted)")
	cmd.Flags().StringVar(&contextValue, "context", "", "Opaque correlation data echoed in notifications")
	cmd.Flags().BoolVar(&noStart, "no-start", false, "Queue only; do not start transmission")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the queued upload as JSON")
	_ = cmd.MarkFlagRequired("dest")
	return cmd
}
