// Command dqc runs data quality control over EMO-BON logsheets.
//
// A run filters the raw logsheets by the threshold date, checks them against
// the rule set of the enabled habitats, writes the violation report and the
// human report to data-quality-control/, and writes the repaired logsheets
// to logsheets/transformed/.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; variables already set in the environment win.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	if err := rootCmd.Execute(); err != nil {
		slog.Error("dqc failed", "error", err)
		os.Exit(1)
	}
}
