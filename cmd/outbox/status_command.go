package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const (
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show outbox queue and storage summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(s *services) error {
				summary, err := s.manager.Status(cmd.Context())
				if err != nil {
					return err
				}

				rows := [][]string{
					{"pending", strconv.Itoa(summary.Pending)},
					{"sending", strconv.Itoa(summary.Sending)},
					{"sent", strconv.Itoa(summary.Sent)},
					{"received", strconv.Itoa(summary.Received)},
					{"failed", strconv.Itoa(summary.Failed)},
					{"total", strconv.Itoa(summary.Total)},
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderTable([]string{"State", "Count"}, rows, 2))

				usage, err := s.media.Usage()
				if err != nil {
					return err
				}
				free, err := s.media.AvailableStorage()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Media usage: %s, free space: %s\n", humanize.IBytes(uint64(usage)), humanize.IBytes(uint64(free)))
				if s.media.IsStorageLow() {
					warning := "Warning: free space is low"
					if isTerminal(out) {
						warning = ansiYellow + warning + ansiReset
					}
					fmt.Fprintln(out, warning)
				}
				return nil
			})
		},
	}
}
