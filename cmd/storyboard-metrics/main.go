// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// storyboard-metrics is the offline companion to the in-process metrics
// engine: it loads exported generation logs and history snapshots and prints
// variant comparisons and pipeline rollups for analysis outside the app.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/framewright/framewright/pkg/logging"
	"github.com/framewright/framewright/services/storyboard/abtest"
	"github.com/framewright/framewright/services/storyboard/config"
	"github.com/framewright/framewright/services/storyboard/metrics"
	"github.com/framewright/framewright/services/storyboard/stats"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "storyboard-metrics",
		Short: "Offline analysis for storyboard pipeline metrics",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyConfig()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "engine config YAML (optional)")

	root.AddCommand(newReportCmd())
	root.AddCommand(newStatsCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// applyConfig loads the optional config file and installs the process logger.
func applyConfig() error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.LogLevel),
		Service: "storyboard-metrics",
	})
	slog.SetDefault(logger.Slog())
	return nil
}

func newReportCmd() *cobra.Command {
	var controlID, treatmentID string

	cmd := &cobra.Command{
		Use:   "report <records.jsonl>",
		Short: "Compare two prompt variants from an exported generation log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open records: %w", err)
			}
			defer file.Close()

			log := abtest.NewLog(nil)
			loaded, err := abtest.ReadJSONL(file, log)
			if err != nil {
				return err
			}
			slog.Debug("loaded generation records", "count", loaded)

			control := log.Summarize(controlID)
			treatment := log.Summarize(treatmentID)
			if control.SampleSize == 0 {
				return fmt.Errorf("no records for control variant %q", controlID)
			}
			if treatment.SampleSize == 0 {
				return fmt.Errorf("no records for treatment variant %q", treatmentID)
			}

			printReport(cmd, control, treatment)
			return nil
		},
	}

	cmd.Flags().StringVar(&controlID, "control", "", "control variant id")
	cmd.Flags().StringVar(&treatmentID, "treatment", "", "treatment variant id")
	_ = cmd.MarkFlagRequired("control")
	_ = cmd.MarkFlagRequired("treatment")
	return cmd
}

// printReport renders the frequentist report and the Bayesian comparison.
func printReport(cmd *cobra.Command, control, treatment abtest.VariantSummary) {
	out := cmd.OutOrStdout()

	report := abtest.GenerateComparisonReport(control, treatment)
	fmt.Fprintf(out, "Variant comparison: %s (control, n=%d) vs %s (treatment, n=%d)\n\n",
		control.VariantLabel, control.SampleSize,
		treatment.VariantLabel, treatment.SampleSize)

	fmt.Fprintf(out, "%-24s %12s %12s %9s %12s %10s\n",
		"metric", "control", "treatment", "rel diff", "significant", "winner")
	for _, c := range report.Comparisons {
		fmt.Fprintf(out, "%-24s %12.4f %12.4f %8.1f%% %12t %10s\n",
			c.Metric, c.ControlValue, c.TreatmentValue,
			c.RelativeDiff*100, c.IsSignificant, c.Winner)
	}
	fmt.Fprintf(out, "\nOverall winner: %s (confidence: %s)\n", report.OverallWinner, report.Confidence)

	bayes := abtest.BayesianCompare(control, treatment)
	fmt.Fprintf(out, "\nBayesian success-rate comparison\n")
	fmt.Fprintf(out, "  P(treatment better) = %.4f\n", bayes.ProbabilityTreatmentBetter)
	fmt.Fprintf(out, "  control  95%% CI: [%.4f, %.4f] (mean %.4f)\n",
		bayes.ControlInterval.Lower, bayes.ControlInterval.Upper, bayes.Control.Mean())
	fmt.Fprintf(out, "  treatment 95%% CI: [%.4f, %.4f] (mean %.4f)\n",
		bayes.TreatmentInterval.Lower, bayes.TreatmentInterval.Upper, bayes.Treatment.Mean())
	if !bayes.HasMinSamples {
		fmt.Fprintf(out, "  note: fewer than %d samples on one side; treat as directional only\n",
			stats.MinBayesianSampleSize)
	}
}

func newStatsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "stats <export.json>",
		Short: "Summarize an exported pipeline-metrics snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open export: %w", err)
			}
			defer file.Close()

			snap, err := metrics.ReadSnapshot(file)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			gs := snap.GlobalStats
			fmt.Fprintf(out, "Exported at: %s\n", snap.ExportedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Runs retained: %d (plus %d still active at export)\n",
				gs.TotalRuns, snap.ActiveRunCount)
			fmt.Fprintf(out, "Overall success rate: %.1f%%\n", gs.OverallSuccessRate*100)
			fmt.Fprintf(out, "Shot duration ms: avg %.0f / p50 %.0f / p95 %.0f\n",
				gs.AvgShotDurationMs, gs.P50ShotDurationMs, gs.P95ShotDurationMs)
			fmt.Fprintf(out, "Avg pipeline duration ms: %.0f\n\n", gs.AvgPipelineDurationMs)

			n := limit
			if n > len(snap.History) {
				n = len(snap.History)
			}
			fmt.Fprintf(out, "%-28s %-16s %6s %6s %6s %10s\n",
				"run", "scene", "shots", "ok", "fail", "dur ms")
			for _, run := range snap.History[:n] {
				dur := int64(0)
				if run.TotalDurationMs != nil {
					dur = *run.TotalDurationMs
				}
				fmt.Fprintf(out, "%-28s %-16s %6d %6d %6d %10d\n",
					run.RunID, run.SceneID, run.TotalShots,
					run.SuccessfulShots, run.FailedShots, dur)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "most-recent runs to list")
	return cmd
}
