package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ferry/internal/format"
	"ferry/internal/ipc"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for one upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id, err := resolveUploadID(client, args[0])
				if err != nil {
					return err
				}
				resp, err := client.UploadDescribe(id)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp.Upload)
				}
				printUploadDetail(cmd, resp.Upload)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the upload as JSON")
	return cmd
}

func printUploadDetail(cmd *cobra.Command, upload ipc.Upload) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "ID:          %s\n", upload.ID)
	fmt.Fprintf(out, "File:        %s (%s)\n", upload.FileName, format.FileSize(upload.TotalBytes))
	fmt.Fprintf(out, "Destination: %s\n", upload.Destination)
	fmt.Fprintf(out, "Owner:       %s\n", upload.OwnerID)
	fmt.Fprintf(out, "MIME type:   %s\n", upload.MimeType)
	fmt.Fprintf(out, "State:       %s\n", uploadStateCell(upload))
	fmt.Fprintf(out, "Progress:    %s (%s of %s)\n",
		format.Percent(upload.Percentage),
		format.FileSize(upload.BytesTransferred),
		format.FileSize(upload.TotalBytes),
	)
	if cell := speedCell(upload); cell != "-" {
		fmt.Fprintf(out, "Speed:       %s\n", cell)
	}
	if cell := etaCell(upload); cell != "-" {
		fmt.Fprintf(out, "ETA:         %s\n", cell)
	}
	if upload.Attempts > 0 {
		fmt.Fprintf(out, "Attempts:    %d\n", upload.Attempts)
	}
	if upload.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:       %s (%s)\n", upload.ErrorMessage, upload.ErrorKind)
	}
	if upload.ResultURL != "" {
		fmt.Fprintf(out, "Result URL:  %s\n", upload.ResultURL)
	}
	if upload.ResultPath != "" {
		fmt.Fprintf(out, "Result path: %s\n", upload.ResultPath)
	}
	if upload.Context != "" {
		fmt.Fprintf(out, "Context:     %s\n", upload.Context)
	}
	if upload.CreatedAt != "" {
		fmt.Fprintf(out, "Created:     %s\n", upload.CreatedAt)
	}
	if upload.UpdatedAt != "" {
		fmt.Fprintf(out, "Updated:     %s\n", upload.UpdatedAt)
	}
}
