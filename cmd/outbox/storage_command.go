package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediaoutbox/internal/mediastore"
)

func newStorageCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "storage",
		Short: "Show media storage usage and free space",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(s *services) error {
				usage, err := s.media.Usage()
				if err != nil {
					return err
				}
				free, err := s.media.AvailableStorage()
				if err != nil {
					return err
				}

				rows := [][]string{
					{"Media root", s.cfg.Paths.MediaRoot},
					{"Content usage", humanize.IBytes(uint64(usage))},
					{"Free space", humanize.IBytes(uint64(free))},
					{"Low storage threshold", humanize.IBytes(uint64(mediastore.LowStorageThreshold))},
					{"Storage low", fmt.Sprintf("%t", s.media.IsStorageLow())},
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Metric", "Value"}, rows))
				return nil
			})
		},
	}
}
