package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zachtilly/childcare-api/seed"
)

var generateSeed int64

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reference and demo data",
}

var seedStatesCmd = &cobra.Command{
	Use:   "states",
	Short: "Insert the 50 reference states",
	Args:  cobra.NoArgs,
	RunE: withRunner(func(ctx context.Context, r *seed.Runner) error {
		n, err := r.SeedStates(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Inserted %d states\n", n)
		return nil
	}),
}

var seedCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Insert the default categories and metrics",
	Args:  cobra.NoArgs,
	RunE:  withRunner(seedCatalog),
}

var seedSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Insert collected sample values for 8 states",
	Args:  cobra.NoArgs,
	RunE:  withRunner(seedSample),
}

var seedGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Insert regional estimates for states without sample data",
	Args:  cobra.NoArgs,
	RunE:  withRunner(seedGenerated),
}

var seedAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every seed step in order",
	Args:  cobra.NoArgs,
	RunE: withRunner(func(ctx context.Context, r *seed.Runner) error {
		n, err := r.SeedStates(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Inserted %d states\n", n)
		for _, step := range []func(context.Context, *seed.Runner) error{seedCatalog, seedSample, seedGenerated} {
			if err := step(ctx, r); err != nil {
				return err
			}
		}
		return nil
	}),
}

func init() {
	seedGenerateCmd.Flags().Int64Var(&generateSeed, "seed", 1, "Random seed for generated values")
	seedAllCmd.Flags().Int64Var(&generateSeed, "seed", 1, "Random seed for generated values")

	seedCmd.AddCommand(seedStatesCmd, seedCatalogCmd, seedSampleCmd, seedGenerateCmd, seedAllCmd)
}

func withRunner(fn func(ctx context.Context, r *seed.Runner) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), seed.NewRunner(a.svc, a.log))
	}
}

func seedCatalog(ctx context.Context, r *seed.Runner) error {
	cats, metrics, err := r.SeedCatalog(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Inserted %d categories and %d metrics\n", cats, metrics)
	return nil
}

func seedSample(ctx context.Context, r *seed.Runner) error {
	res, err := r.SeedSample(ctx)
	if err != nil {
		return err
	}
	printBatch("sample", res)
	return nil
}

func seedGenerated(ctx context.Context, r *seed.Runner) error {
	res, err := r.SeedGenerated(ctx, generateSeed)
	if err != nil {
		return err
	}
	printBatch("generated", res)
	return nil
}

func printBatch(name string, res seed.BatchResult) {
	fmt.Printf("Seeded %s data: %d of %d records inserted", name, res.Inserted, res.Prepared)
	if res.Skipped > 0 {
		fmt.Printf(", %d skipped", res.Skipped)
	}
	if res.FailedBatches > 0 {
		fmt.Printf(", %d batches failed", res.FailedBatches)
	}
	fmt.Println()
}
