package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/rx-intake/constants"
	"github.com/joseph-ayodele/rx-intake/internal/app"
	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/core/async"
	"github.com/joseph-ayodele/rx-intake/internal/core/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var configFile string
	rootCmd := &cobra.Command{
		Use:           "rxintake",
		Short:         "Process prescriptions and work the review queue from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (defaults to ./.env)")

	rootCmd.AddCommand(
		processCmd(&configFile),
		batchCmd(&configFile),
		watchCmd(&configFile),
		pendingCmd(&configFile),
		approveCmd(&configFile),
		exportCmd(&configFile),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}

func build(ctx context.Context, configFile string) (*app.App, *slog.Logger, error) {
	cfg, err := common.LoadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}
	// CLI output goes to stdout; keep logs on stderr
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	a, err := app.Build(ctx, cfg, logger, app.Options{})
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

func logLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return level
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func processCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "process <file>",
		Short: "Run one prescription image or text file through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := build(cmd.Context(), *configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Intake.Handle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"record":              res.Record,
				"requires_validation": res.Outcome.RequiresValidation,
				"review_id":           res.Outcome.ReviewID,
			})
		},
	}
}

func batchCmd(configFile *string) *cobra.Command {
	var (
		workers    int
		exts       []string
		skipHidden bool
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Process every prescription file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, logger, err := build(ctx, *configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			paths, err := pipeline.ScanDirectory(args[0], exts, skipHidden)
			if err != nil {
				return err
			}
			logger.Info("scan complete", "dir", args[0], "matched", len(paths))

			var (
				mu       sync.Mutex
				reviewed int
				passed   int
				failures int
			)
			q := async.NewProcessorQueue(a.Intake, logger,
				async.WithWorkers(workers),
				async.WithQueueSize(len(paths)),
				async.WithProcessTimeout(timeout),
				async.WithResultHook(func(job async.Job, res pipeline.Result, err error) {
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err != nil:
						failures++
						printError("%s: %v\n", job.Path, err)
					case res.Outcome.RequiresValidation:
						reviewed++
						fmt.Printf("%s: queued for review as %s\n", job.Path, res.Outcome.ReviewID)
					default:
						passed++
						fmt.Printf("%s: accepted (confidence %.2f)\n", job.Path, res.Record.Confidence)
					}
				}),
			)
			for _, p := range paths {
				if err := q.Enqueue(ctx, async.Job{Path: p}); err != nil {
					logger.Error("failed to enqueue", "path", p, "error", err)
					break
				}
			}
			q.Shutdown(context.Background())

			fmt.Printf("Batch processing complete!\n")
			fmt.Printf("- Files matched: %d\n", len(paths))
			fmt.Printf("- Accepted: %d\n", passed)
			fmt.Printf("- Queued for review: %d\n", reviewed)
			fmt.Printf("- Failures: %d\n", failures)
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "parallel workers")
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "file extensions to include (default: jpg,jpeg,png,tif,tiff,txt)")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip hidden files and directories")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "per-file processing timeout")
	return cmd
}

func watchCmd(configFile *string) *cobra.Command {
	var (
		workers     int
		exts        []string
		initialScan bool
		debounce    time.Duration
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Process prescription files as they land in drop folders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, logger, err := build(ctx, *configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			var allowed map[string]struct{}
			if len(exts) > 0 {
				allowed = make(map[string]struct{}, len(exts))
				for _, e := range exts {
					allowed[constants.NormalizeExt(strings.TrimSpace(e))] = struct{}{}
				}
			}
			paths, errs, err := pipeline.Watch(ctx, pipeline.WatchConfig{
				Roots:       args,
				AllowedExts: allowed,
				InitialScan: initialScan,
				Debounce:    debounce,
				SkipHidden:  true,
			}, logger)
			if err != nil {
				return err
			}

			q := async.NewProcessorQueue(a.Intake, logger,
				async.WithWorkers(workers),
				async.WithProcessTimeout(timeout),
				async.WithResultHook(func(job async.Job, res pipeline.Result, err error) {
					switch {
					case err != nil:
						printError("%s: %v\n", job.Path, err)
					case res.Outcome.RequiresValidation:
						fmt.Printf("%s: queued for review as %s\n", job.Path, res.Outcome.ReviewID)
					default:
						fmt.Printf("%s: accepted (confidence %.2f)\n", job.Path, res.Record.Confidence)
					}
				}),
			)
			logger.Info("watching for prescriptions", "dirs", args)
			for p := range paths {
				if err := q.Enqueue(ctx, async.Job{Path: p, SubmittedAt: time.Now()}); err != nil {
					logger.Warn("failed to enqueue", "path", p, "error", err)
				}
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			q.Shutdown(shutdownCtx)
			// drain so a late watcher error is reported
			for err := range errs {
				logger.Error("watcher stopped with error", "error", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 2, "parallel workers")
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "file extensions to include (default: jpg,jpeg,png,tif,tiff,txt)")
	cmd.Flags().BoolVar(&initialScan, "initial-scan", false, "also process files already in the folders")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "wait this long after the last write before processing")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "per-file processing timeout")
	return cmd
}

func pendingCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List items waiting for review, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := build(cmd.Context(), *configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Queue.ListPending(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(items)
		},
	}
}

func approveCmd(configFile *string) *cobra.Command {
	var (
		sets     []string
		reviewer string
		submit   bool
	)
	cmd := &cobra.Command{
		Use:   "approve <review-id>",
		Short: "Approve a review item, optionally with corrections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			corrections, err := parseCorrections(sets)
			if err != nil {
				return err
			}
			a, _, err := build(cmd.Context(), *configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if reviewer != "" {
				ctx = common.WithReviewer(ctx, reviewer)
			}
			item, err := a.Queue.Approve(ctx, args[0], corrections)
			if err != nil {
				return err
			}
			if submit {
				if _, err := a.Router.Release(ctx, item); err != nil {
					return err
				}
			}
			return printJSON(item)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "correction as field=value (repeatable), e.g. --set patient_name=\"Maria Silva\"")
	cmd.Flags().StringVar(&reviewer, "reviewer", os.Getenv("USER"), "who is approving")
	cmd.Flags().BoolVar(&submit, "submit", false, "hand the corrected record downstream after approval")
	return cmd
}

func parseCorrections(sets []string) (map[string]string, error) {
	out := make(map[string]string, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: correction %q must be field=value", common.ErrInvalidInput, s)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

func exportCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export <out.xlsx>",
		Short: "Write pending review items to an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := build(cmd.Context(), *configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.Exporter.PendingXLSX(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", args[0], err)
			}
			fmt.Printf("- Output: %s\n", args[0])
			return nil
		},
	}
}
