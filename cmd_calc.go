package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"compensation-engine/internal/engine"
	"compensation-engine/internal/model"
	"compensation-engine/internal/paramtable"
	"compensation-engine/internal/render"
)

func calcCmd() *cobra.Command {
	var (
		export string
		outDir string
		jobs   int
	)
	cmd := &cobra.Command{
		Use:   "calc [case.json...]",
		Short: "Evaluate case files and print the results",
		Long: `Evaluates each case file against the configured parameter tables and
prints the results as a JSON array in argument order. With --export the
results are also rendered and written to the output directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := cfg.Template()
			if err != nil {
				return err
			}
			if export != "" {
				if tpl.Format, err = render.ParseFormat(export); err != nil {
					return err
				}
			}
			if outDir == "" {
				outDir = cfg.Render.OutputDir
			}

			sources, err := cfg.Sources()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store := paramtable.NewStore(logger)
			if err := store.Load(ctx, sources...); err != nil {
				return err
			}

			results, err := evaluateFiles(ctx, engine.New(store, logger), args, jobs)
			if err != nil {
				return err
			}

			if export != "" {
				for _, res := range results {
					doc, err := render.Render(res, tpl)
					if err != nil {
						return err
					}
					path, err := doc.Materialize(outDir)
					if err != nil {
						return err
					}
					logger.Info("statement written", zap.String("path", path), zap.String("result_id", res.ResultID))
				}
			}

			out, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVarP(&export, "export", "e", "", "also render results: docx, markdown or html")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory for exported statements")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "cases evaluated concurrently")
	return cmd
}

// evaluateFiles evaluates every case file concurrently. Results keep the
// order of paths; the first failure cancels the rest.
func evaluateFiles(ctx context.Context, eng *engine.Engine, paths []string, jobs int) ([]*model.ComputationResult, error) {
	results := make([]*model.ComputationResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			var req model.CaseRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			res, err := eng.EvaluateRequest(&req)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
