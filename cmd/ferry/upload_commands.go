package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ferry/internal/ipc"
)

// resolveUploadID accepts a full upload id or an unambiguous prefix of one.
func resolveUploadID(client *ipc.Client, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("upload id is required")
	}

	resp, err := client.UploadList(ipc.UploadListRequest{All: true})
	if err != nil {
		return "", err
	}

	var matches []string
	for _, upload := range resp.Uploads {
		if upload.ID == arg {
			return arg, nil
		}
		if strings.HasPrefix(upload.ID, arg) {
			matches = append(matches, upload.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no upload matches %q", arg)
	default:
		return "", fmt.Errorf("upload id %q is ambiguous (%d matches)", arg, len(matches))
	}
}

type controlSpec struct {
	use   string
	short string
	done  string
	call  func(*ipc.Client, string) error
}

func newControlCommands(ctx *commandContext) []*cobra.Command {
	specs := []controlSpec{
		{
			use:   "start <id>",
			short: "Start transmission for a queued upload",
			done:  "Upload started",
			call:  func(c *ipc.Client, id string) error { return c.UploadStart(id) },
		},
		{
			use:   "pause <id>",
			short: "Pause a running upload at the next chunk boundary",
			done:  "Pause requested",
			call:  func(c *ipc.Client, id string) error { return c.UploadPause(id) },
		},
		{
			use:   "resume <id>",
			short: "Resume a paused or failed upload from its committed offset",
			done:  "Upload resumed",
			call:  func(c *ipc.Client, id string) error { return c.UploadResume(id) },
		},
		{
			use:   "cancel <id>",
			short: "Cancel an upload and release its server-side session",
			done:  "Upload canceled",
			call:  func(c *ipc.Client, id string) error { return c.UploadCancel(id) },
		},
		{
			use:   "remove <id>",
			short: "Remove an upload record, canceling it first when active",
			done:  "Upload removed",
			call:  func(c *ipc.Client, id string) error { return c.UploadRemove(id) },
		},
	}

	commands := make([]*cobra.Command, 0, len(specs))
	for _, spec := range specs {
		spec := spec
		commands = append(commands, &cobra.Command{
			Use:   spec.use,
			Short: spec.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withClient(func(client *ipc.Client) error {
					id, err := resolveUploadID(client, args[0])
					if err != nil {
						return err
					}
					if err := spec.call(client, id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", spec.done, shortID(id))
					return nil
				})
			},
		})
	}
	return commands
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove finished upload records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.UploadCleanup(failedOnly)
				if err != nil {
					return err
				}
				if failedOnly {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d failed or canceled uploads\n", resp.Removed)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d finished uploads\n", resp.Removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&failedOnly, "failed-only", false, "Keep completed uploads; remove only failed and canceled records")
	return cmd
}
