package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emo-bon/dqc/internal/core"
	"github.com/emo-bon/dqc/internal/rules"
)

var (
	rootCmd = &cobra.Command{
		Use:           "dqc",
		Short:         "Data quality control for EMO-BON logsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Filter, check and repair the logsheets of the workspace",
		Long: `Filters the raw logsheets by DATA_QUALITY_CONTROL_THRESHOLD_DATE, runs every
rule of the enabled habitats and writes data-quality-control/dqc.csv,
report.csv and report.html. Automatic repairs are then applied and the
result written to logsheets/transformed.`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}
	noRepair bool

	repairCmd = &cobra.Command{
		Use:   "repair",
		Short: "Apply the repairs of an existing report to the filtered logsheets",
		Args:  cobra.NoArgs,
		RunE:  runRepair,
	}
	reportPath string

	rulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "List the rules run for a habitat",
		Args:  cobra.NoArgs,
		RunE:  runRules,
	}
	habitatFlag string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&noRepair, "no-repair", false, "Stop after the reports; do not write transformed logsheets.")

	rootCmd.AddCommand(repairCmd)
	repairCmd.Flags().StringVar(&reportPath, "report", "", "Violation report to apply (default: data-quality-control/dqc.csv in the workspace)")

	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVar(&habitatFlag, "habitat", string(core.HabitatAll), "Habitat scope: sediment, water or all")
}

func runRules(cmd *cobra.Command, _ []string) error {
	h := core.Habitat(habitatFlag)
	if !h.Valid() {
		return fmt.Errorf("unknown habitat %q", habitatFlag)
	}

	// Resolvers are never called while listing.
	rs, err := rules.Build(h, rules.Options{ORCID: listOnly{}, Taxonomy: listOnly{}})
	if err != nil {
		return err
	}
	for i, name := range rs.Names() {
		fmt.Fprintf(cmd.OutOrStdout(), "%2d  %s\n", i+1, name)
	}
	return nil
}
