package main

import (
	"context"
	"fmt"

	"neowatch/internal/models"
	"neowatch/internal/service"

	"github.com/spf13/cobra"
)

type inspectOptions struct {
	pdes    string
	name    string
	verbose bool
}

func newInspectCmd(root *rootOptions) *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect a single NEO by primary designation or name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.pdes, "pdes", "p", "", "primary designation of the NEO")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "IAU name of the NEO")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "also list the NEO's close approaches")
	cmd.MarkFlagsMutuallyExclusive("pdes", "name")
	cmd.MarkFlagsOneRequired("pdes", "name")
	return cmd
}

func runInspect(cmd *cobra.Command, root *rootOptions, opts *inspectOptions) error {
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

	var (
		neo *models.NearEarthObject
		ok  bool
	)
	ctx := context.Background()
	if opts.pdes != "" {
		neo, ok = svc.GetByDesignation(ctx, opts.pdes)
	} else {
		neo, ok = svc.GetByName(ctx, opts.name)
	}
	if !ok {
		fmt.Fprintln(cmd.ErrOrStderr(), "No matching NEOs exist in the database.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, neo)
	if opts.verbose {
		for _, ca := range neo.Approaches {
			fmt.Fprintf(out, "- %s\n", ca)
		}
	}
	return nil
}
