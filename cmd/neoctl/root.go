package main

import (
	"fmt"

	"neowatch/internal/config"
	"neowatch/internal/extract"
	"neowatch/internal/logger"
	"neowatch/internal/neodb"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	neoFile  string
	cadFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	_ = godotenv.Load()
	cfg := config.Load()

	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "neoctl",
		Short: "Explore near-Earth objects and their close approaches",
		Long: `neoctl loads the NASA NEO catalog and the JPL close-approach data set
into memory and answers questions about them.

Examples:
  neoctl inspect --pdes 433
  neoctl inspect --name Apophis --verbose
  neoctl query --date 2029-04-13 --hazardous
  neoctl query --start-date 2020-01-01 --max-distance 0.05 --outfile out.xlsx`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.neoFile, "neofile", cfg.Data.NEOPath, "path to the NEO CSV file")
	cmd.PersistentFlags().StringVar(&opts.cadFile, "cadfile", cfg.Data.CADPath, "path to the close-approach JSON file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	cmd.AddCommand(newInspectCmd(opts))
	cmd.AddCommand(newQueryCmd(opts))
	return cmd
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	return logger.NewLogger("local", o.logLevel)
}

func (o *rootOptions) loadDatabase(log *zap.Logger) (*neodb.Database, error) {
	db, err := extract.LoadDatabase(o.neoFile, o.cadFile)
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	stats := db.Stats()
	log.Debug("Data loaded",
		zap.Int("neos", stats.NEOs),
		zap.Int("approaches", stats.Approaches),
		zap.Int("unlinked", stats.UnlinkedApproaches))
	return db, nil
}
