package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediaoutbox/internal/daemon"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var conversation string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Import a media file and queue it for transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(s *services) error {
				d, err := daemon.New(s.cfg, s.store, s.media, s.manager, nil)
				if err != nil {
					return err
				}
				entry, err := d.AddFile(cmd.Context(), args[0], conversation)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Artifact %s queued in conversation %s\n", entry.ArtifactID, entry.ConversationID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&conversation, "conversation", "default", "Conversation the media belongs to")
	return cmd
}
