package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JakeFAU/pickup-checker/internal/clock/system"
	"github.com/JakeFAU/pickup-checker/internal/pickup"
	"github.com/JakeFAU/pickup-checker/internal/replay"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newReplayCmd() *cobra.Command {
	var (
		htmlPath string
		zips     []string
		open     bool
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Extracts store rows from a saved HTML snapshot",
		Long: `Runs the extractor against a page snapshot, such as the
page_no_modal.html written when a live run cannot open the availability
dialog. Rows are printed as JSON. No waits are applied.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if htmlPath == "" {
				return errors.New("--html is required")
			}
			page, err := replay.Load(htmlPath)
			if err != nil {
				return err
			}
			if len(zips) == 0 {
				zips = a.cfg.Check.ZipCodes
			}

			ctx := cmd.Context()
			clock := system.New()
			if open {
				nav := pickup.NewNavigator(page, clock, pickup.Timing{}, a.logger)
				nav.DismissOverlays(ctx)
				if err := nav.OpenAvailability(ctx); err != nil {
					a.logger.Warn("trigger not found in snapshot", zap.Error(err))
				}
			}

			ext := pickup.NewExtractor(page, clock, pickup.Timing{}, a.logger)
			rows := []pickup.Row{}
			for _, zip := range zips {
				got, err := ext.Extract(ctx, zip)
				if err != nil {
					return fmt.Errorf("extract %s: %w", zip, err)
				}
				rows = append(rows, got...)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rows); err != nil {
				return fmt.Errorf("print rows: %w", err)
			}
			a.logger.Info("replay finished",
				zap.Int("rows", len(rows)),
				zap.Int("available", len(pickup.Hits(rows))),
				zap.Strings("clicks", page.Clicks()),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&htmlPath, "html", "", "saved page snapshot")
	cmd.Flags().StringSliceVar(&zips, "zip", nil, "zip codes to enter (default: configured zips)")
	cmd.Flags().BoolVar(&open, "open", false, "dismiss overlays and click the availability trigger first")
	return cmd
}
