package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediaoutbox/internal/transfer"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the transfer queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueCancelCommand(ctx))
	queueCmd.AddCommand(newQueueSweepCommand(ctx))
	queueCmd.AddCommand(newQueueCleanupCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(s *services) error {
				entries, err := s.manager.Pending(cmd.Context())
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					lastAttempt := "never"
					if !entry.LastAttemptAt.IsZero() {
						lastAttempt = humanize.Time(entry.LastAttemptAt)
					}
					rows = append(rows, []string{
						entry.ArtifactID,
						entry.ConversationID,
						string(entry.Phase),
						strconv.Itoa(entry.RetryCount),
						lastAttempt,
						entry.CreatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Artifact", "Conversation", "Phase", "Retries", "Last Attempt", "Created"},
					rows, 4,
				))
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <artifact-id>",
		Short: "Put a failed transfer back into the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(s *services) error {
				entry, err := s.manager.Retry(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Artifact %s queued for retry (%d of %d attempts used)\n",
					entry.ArtifactID, entry.RetryCount, transfer.MaxRetries)
				return nil
			})
		},
	}
}

func newQueueCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <artifact-id>",
		Short: "Abandon a transfer, keeping the stored media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(s *services) error {
				cancelled, err := s.manager.Cancel(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !cancelled {
					fmt.Fprintf(cmd.OutOrStdout(), "No cancellable entry for artifact %s\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Artifact %s cancelled\n", args[0])
				return nil
			})
		},
	}
}

func newQueueSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one delivery sweep over the pending queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(s *services) error {
				result, err := s.manager.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Attempted %d, delivered %d, failed %d, exhausted %d\n",
					result.Attempted, result.Delivered, result.Failed, result.Exhausted)
				return nil
			})
		},
	}
}

func newQueueCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Purge transfers past their retention window, media included",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(s *services) error {
				purged, err := s.manager.Cleanup(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired transfers\n", purged)
				return nil
			})
		},
	}
}
