package main

import (
	"context"
	"fmt"

	"neowatch/internal/export"
	"neowatch/internal/filters"
	"neowatch/internal/service"

	"github.com/spf13/cobra"
)

type queryOptions struct {
	limit   int
	outfile string
}

// criteriaFlags maps CLI flag names to criteria option keys.
var criteriaFlags = []struct {
	flag  string
	key   string
	usage string
}{
	{"date", filters.KeyDate, "only approaches on this date (YYYY-MM-DD)"},
	{"start-date", filters.KeyStartDate, "only approaches on or after this date (YYYY-MM-DD)"},
	{"end-date", filters.KeyEndDate, "only approaches on or before this date (YYYY-MM-DD)"},
	{"min-distance", filters.KeyDistanceMin, "minimum approach distance in au"},
	{"max-distance", filters.KeyDistanceMax, "maximum approach distance in au"},
	{"min-velocity", filters.KeyVelocityMin, "minimum relative velocity in km/s"},
	{"max-velocity", filters.KeyVelocityMax, "maximum relative velocity in km/s"},
	{"min-diameter", filters.KeyDiameterMin, "minimum NEO diameter in km"},
	{"max-diameter", filters.KeyDiameterMax, "maximum NEO diameter in km"},
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query close approaches matching the given criteria",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, root, opts)
		},
	}

	for _, f := range criteriaFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
	cmd.Flags().Bool("hazardous", false, "only potentially hazardous NEOs")
	cmd.Flags().Bool("not-hazardous", false, "only NEOs that are not potentially hazardous")
	cmd.MarkFlagsMutuallyExclusive("hazardous", "not-hazardous")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 10, "maximum number of results, 0 for no limit")
	cmd.Flags().StringVarP(&opts.outfile, "outfile", "o", "", "write results to a .csv, .json or .xlsx file")
	return cmd
}

func parseCriteriaFlags(cmd *cobra.Command) (filters.Criteria, error) {
	opts := make(map[string]string)
	for _, f := range criteriaFlags {
		if v, _ := cmd.Flags().GetString(f.flag); v != "" {
			opts[f.key] = v
		}
	}
	if h, _ := cmd.Flags().GetBool("hazardous"); h {
		opts[filters.KeyHazardous] = "true"
	}
	if nh, _ := cmd.Flags().GetBool("not-hazardous"); nh {
		opts[filters.KeyHazardous] = "false"
	}
	return filters.ParseCriteria(opts)
}

func runQuery(cmd *cobra.Command, root *rootOptions, opts *queryOptions) error {
	criteria, err := parseCriteriaFlags(cmd)
	if err != nil {
		return err
	}
	if opts.limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", filters.ErrInvalidCriteria)
	}

	var format export.Format
	if opts.outfile != "" {
		if format, err = export.FormatFromPath(opts.outfile); err != nil {
			return err
		}
	}

	log, err := root.logger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := root.loadDatabase(log)
	if err != nil {
		return err
	}
	svc := service.NewNEOService(db, service.Options{Source: service.SourceCLI, Logger: log})

	result, err := svc.QueryApproaches(context.Background(), criteria, opts.limit)
	if err != nil {
		return err
	}

	if opts.outfile != "" {
		if err := export.WriteFile(opts.outfile, format, result.Approaches); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d approaches to %s\n", result.Count, opts.outfile)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, row := range result.Approaches {
		fmt.Fprintln(out, row)
	}
	return nil
}
