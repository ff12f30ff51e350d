package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gotrack/adapters/db"
	"gotrack/adapters/excel"
	"gotrack/app"
	"gotrack/domain/core"
	"gotrack/domain/stats"
	"gotrack/internal/config"
	apperrors "gotrack/internal/errors"
	"gotrack/internal/testkit"
	"gotrack/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "gotrack-cli",
		Short: "Mouse-tracking trajectory analysis",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newMetricsCmd(),
		newBootstrapCmd(),
		newGenerateCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// inputFlags are shared by every command that reads an experiment export
type inputFlags struct {
	trials       string
	participants string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.trials, "trials", "", "Trial export (.csv or .xlsx); defaults to TRIALS_FILE")
	cmd.Flags().StringVar(&f.participants, "participants", "", "Participant file; defaults to PARTICIPANTS_FILE")
}

func (f *inputFlags) apply(cfg *config.Config) error {
	if f.trials != "" {
		cfg.Data.TrialsFile = f.trials
	}
	if f.participants != "" {
		cfg.Data.ParticipantsFile = f.participants
	}
	if cfg.Data.TrialsFile == "" {
		return fmt.Errorf("no trial file given (use --trials or TRIALS_FILE)")
	}
	return nil
}

func newAnalyzeCmd() *cobra.Command {
	var in inputFlags
	var report string
	var persist bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full pipeline and print the test battery",
		Long: `Load, clean and normalize trajectories, derive metrics, run the hypothesis tests
and the divergence bootstrap.

Example: gotrack-cli analyze --trials data/trials.csv --participants data/participants.csv --report out.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := in.apply(cfg); err != nil {
				return err
			}
			if report != "" {
				cfg.Output.ReportFile = report
			}
			return runAnalyze(cmd.Context(), cfg, persist)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&report, "report", "", "Write the JSON report to this path")
	cmd.Flags().BoolVar(&persist, "persist", true, "Store results when DATABASE_URL is set")
	return cmd
}

func newMetricsCmd() *cobra.Command {
	var in inputFlags
	var out string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Export per-trial kinematic metrics",
		Long: `Run the pipeline up to metric derivation and write one row per analysed trial.

Example: gotrack-cli metrics --trials data/trials.csv --out metrics.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := in.apply(cfg); err != nil {
				return err
			}
			return runMetrics(cmd.Context(), cfg, out)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&out, "out", "metrics.csv", "Output file (.csv or .xlsx)")
	return cmd
}

func newBootstrapCmd() *cobra.Command {
	var in inputFlags
	var draws, workers int
	var seed int64

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Simulate the null distribution of divergence run lengths",
		Long: `Fit the AR(1) null model to the observed difference curves and report how often
chance produces a divergence run at least as long as the observed one.

Example: gotrack-cli bootstrap --trials data/trials.csv --draws 5000 --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := in.apply(cfg); err != nil {
				return err
			}
			cfg.Bootstrap.Enabled = true
			if cmd.Flags().Changed("draws") {
				cfg.Bootstrap.Draws = draws
			}
			if cmd.Flags().Changed("workers") {
				cfg.Bootstrap.Workers = workers
			}
			if cmd.Flags().Changed("seed") {
				cfg.Bootstrap.Seed = seed
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return runBootstrap(cmd.Context(), cfg)
		},
	}

	in.register(cmd)
	cmd.Flags().IntVar(&draws, "draws", 1000, "Number of simulated experiments")
	cmd.Flags().IntVar(&workers, "workers", 4, "Parallel workers")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	gen := testkit.DefaultTrialConfig()
	var trialsOut, participantsOut string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic experiment export",
		Long: `Generate typical/atypical trajectories in the upstream logger's layout, for demos
and pipeline smoke tests.

Example: gotrack-cli generate --subjects 30 --trials-out trials.csv --participants-out participants.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(gen, trialsOut, participantsOut)
		},
	}

	cmd.Flags().IntVar(&gen.Subjects, "subjects", gen.Subjects, "Number of submissions")
	cmd.Flags().IntVar(&gen.TrialsPerCondition, "trials-per-condition", gen.TrialsPerCondition, "Trials per condition and subject")
	cmd.Flags().Float64Var(&gen.AtypicalPull, "atypical-pull", gen.AtypicalPull, "Attraction toward the foil on atypical trials")
	cmd.Flags().Float64Var(&gen.ErrorRate, "error-rate", gen.ErrorRate, "Share of incorrect answers")
	cmd.Flags().Int64Var(&gen.Seed, "seed", gen.Seed, "Random seed")
	cmd.Flags().StringVar(&trialsOut, "trials-out", "trials.csv", "Trial export path (.csv or .xlsx)")
	cmd.Flags().StringVar(&participantsOut, "participants-out", "participants.csv", "Participant file path; empty to skip")
	return cmd
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored analysis runs",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cmd.Context(), func(repo ports.ResultRepository) error {
				return runList(cmd.Context(), repo, limit)
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum runs to show")

	show := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show the stored tests and bootstrap of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			return withRepository(cmd.Context(), func(repo ports.ResultRepository) error {
				return runShow(cmd.Context(), repo, runID)
			})
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func newService(cfg *config.Config, results ports.ResultRepository) (*app.AnalysisService, error) {
	kit, err := testkit.NewTestKit()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize test kit: %w", err)
	}

	var participants ports.ParticipantSource
	if cfg.Data.ParticipantsFile != "" {
		participants = excel.NewParticipantReader(cfg.Data.ParticipantsFile)
	}
	return app.NewAnalysisService(cfg, excel.NewDataReader(cfg.Data.TrialsFile), participants, results, kit.RNGAdapter()), nil
}

func withRepository(ctx context.Context, fn func(repo ports.ResultRepository) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled() {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	conn, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(db.NewResultRepository(conn))
}

func runAnalyze(ctx context.Context, cfg *config.Config, persist bool) error {
	fmt.Printf("🔬 Analysing %s...\n", cfg.Data.TrialsFile)

	var results ports.ResultRepository
	if persist && cfg.Database.Enabled() {
		conn, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer conn.Close()
		results = db.NewResultRepository(conn)
	}

	service, err := newService(cfg, results)
	if err != nil {
		return err
	}

	startTime := time.Now()
	report, _, err := service.Run(ctx)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	printFunnel(report.Funnel)
	printMetricTests(report.Metrics)
	printSpace(report.SpaceANOVA)
	printDivergence(report.Divergence)
	if report.Bootstrap != nil {
		printBootstrap(report.Bootstrap)
	}
	printWarnings(report.Warnings)

	fmt.Printf("\n✅ RUN %s COMPLETED in %v\n", report.RunID, time.Since(startTime).Round(time.Millisecond))
	fmt.Printf("Fingerprint: %s\n", report.Fingerprint)
	if results != nil {
		fmt.Printf("💾 Stored in %s result store\n", cfg.Database.Driver)
	}
	if cfg.Output.ReportFile != "" {
		fmt.Printf("💾 Report saved to: %s\n", cfg.Output.ReportFile)
	}
	return nil
}

func runMetrics(ctx context.Context, cfg *config.Config, out string) error {
	service, err := newService(cfg, nil)
	if err != nil {
		return err
	}
	prepared, err := service.Prepare(ctx)
	if err != nil {
		return err
	}
	if err := excel.WriteMetrics(out, prepared.Dataset.Metrics); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}

	printFunnel(prepared.Funnel)
	fmt.Printf("\n💾 %d metric rows saved to: %s\n", len(prepared.Dataset.Metrics), out)
	return nil
}

func runBootstrap(ctx context.Context, cfg *config.Config) error {
	fmt.Printf("🎲 Simulating %d draws on %d workers (seed %d)...\n", cfg.Bootstrap.Draws, cfg.Bootstrap.Workers, cfg.Bootstrap.Seed)

	service, err := newService(cfg, nil)
	if err != nil {
		return err
	}
	report, _, err := service.Run(ctx)
	if err != nil {
		return err
	}

	printDivergence(report.Divergence)
	if report.Bootstrap == nil {
		printWarnings(report.Warnings)
		return fmt.Errorf("no bootstrap result")
	}
	printBootstrap(report.Bootstrap)
	printHistogram(report.Bootstrap.NullRuns, report.Bootstrap.ObservedRun)
	return nil
}

func runGenerate(gen testkit.TrialGeneratorConfig, trialsOut, participantsOut string) error {
	records, participants := testkit.NewTrialGenerator(gen).Generate()

	if err := excel.WriteTrials(trialsOut, records); err != nil {
		return fmt.Errorf("failed to write trials: %w", err)
	}
	fmt.Printf("💾 %d trials from %d subjects saved to: %s\n", len(records), gen.Subjects, trialsOut)

	if participantsOut != "" {
		if err := excel.WriteParticipants(participantsOut, participants); err != nil {
			return fmt.Errorf("failed to write participants: %w", err)
		}
		fmt.Printf("💾 %d participants saved to: %s\n", len(participants), participantsOut)
	}
	return nil
}

func runList(ctx context.Context, repo ports.ResultRepository, limit int) error {
	runs, err := repo.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No stored runs")
		return nil
	}

	fmt.Printf("%-36s  %-19s  %8s  %8s  %8s  %s\n", "RUN", "CREATED", "LOADED", "ANALYSED", "SUBJECTS", "FINGERPRINT")
	for _, r := range runs {
		fmt.Printf("%-36s  %-19s  %8d  %8d  %8d  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Loaded, r.Analysed, r.Subjects, r.Fingerprint.Short())
	}
	return nil
}

func runShow(ctx context.Context, repo ports.ResultRepository, runID core.RunID) error {
	run, err := repo.GetRun(ctx, runID)
	if core.IsNotFoundError(err) {
		return apperrors.NotFound(fmt.Sprintf("run %s", runID))
	}
	if err != nil {
		return err
	}
	fmt.Printf("=== RUN %s ===\n", run.ID)
	fmt.Printf("Created: %s\n", run.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Trials: %d loaded, %d analysed, %d subjects\n", run.Loaded, run.Analysed, run.Subjects)

	tests, err := repo.GetTests(ctx, runID)
	if err != nil {
		return err
	}
	fmt.Printf("\n=== TESTS ===\n")
	for _, t := range tests {
		fmt.Printf("%-13s %-26s %-14s stat=%9.3f  p=%s\n", t.Family, t.Metric, t.Test, t.Statistic, formatP(t.PValue))
	}

	b, err := repo.GetBootstrap(ctx, runID)
	if core.IsNotFoundError(err) {
		return nil
	}
	if err != nil {
		return err
	}
	printBootstrap(b)
	return nil
}

func printFunnel(f stats.Funnel) {
	fmt.Printf("\n📊 TRIAL FUNNEL\n")
	fmt.Printf("Loaded:            %d\n", f.Loaded)
	fmt.Printf("After filter:      %d\n", f.Filtered)
	reasons := make([]string, 0, len(f.FilterDrops))
	for reason := range f.FilterDrops {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Printf("  • %s: %d\n", reason, f.FilterDrops[reason])
	}
	fmt.Printf("Outliers removed:  %d (%d passes)\n", f.OutliersRemoved, f.OutlierPasses)
	fmt.Printf("Incorrect:         %d\n", f.Incorrect)
	fmt.Printf("Analysed:          %d (%d typical, %d atypical) from %d subjects\n", f.Analysed, f.Typical, f.Atypical, f.Subjects)
}

func printMetricTests(metrics []stats.MetricTests) {
	fmt.Printf("\n=== METRIC TESTS (typical vs atypical) ===\n")
	for _, mt := range metrics {
		fmt.Printf("%s\n", mt.Metric)
		if t := mt.Welch; t != nil {
			fmt.Printf("   Welch   t(%.1f)=%7.3f  p=%s  d=%.2f\n", t.DF, t.T, formatP(t.PValue), t.CohensD)
		}
		if t := mt.Paired; t != nil {
			fmt.Printf("   Paired  t(%.0f)=%7.3f  p=%s  dz=%.2f\n", t.DF, t.T, formatP(t.PValue), t.CohensD)
		}
		if a := mt.ANOVA; a != nil {
			fmt.Printf("   ANOVA   F(%.0f,%.0f)=%7.3f  p=%s  η²=%.3f\n", a.DF1, a.DF2, a.F, formatP(a.PValue), a.EtaSquared)
		}
		if ks := mt.KS; ks != nil {
			fmt.Printf("   KS      D=%.3f  p=%s\n", ks.D, formatP(ks.PValue))
		}
		for _, bc := range mt.Bimodality {
			marker := ""
			if bc.Bimodal {
				marker = " ⚠️ bimodal"
			}
			fmt.Printf("   BC[%s] %.3f%s\n", bc.Label, bc.Coefficient, marker)
		}
	}
}

func printSpace(r *stats.RMANOVAResult) {
	if r == nil {
		return
	}
	fmt.Printf("\n=== SPACE BINS (%s × %s, %d subjects) ===\n", r.FactorA, r.FactorB, r.Subjects)
	for _, e := range r.Effects {
		fmt.Printf("%-20s F(%.0f,%.0f)=%7.3f  p=%s  ηp²=%.3f\n", e.Name, e.DF1, e.DF2, e.F, formatP(e.PValue), e.PartialEta2)
	}
}

func printDivergence(d *stats.DivergenceResult) {
	if d == nil {
		return
	}
	fmt.Printf("\n=== DIVERGENCE ===\n")
	fmt.Printf("Significant steps: %d of %d (alpha %.3f)\n", countTrue(d.Significant), d.Steps, d.Alpha)
	if d.LongestRun == 0 {
		fmt.Printf("No significant step\n")
		return
	}
	fmt.Printf("Longest run: %d steps from step %d (first significant step %d)\n", d.LongestRun, d.RunStart, d.FirstSignificant)
}

func printBootstrap(b *stats.BootstrapResult) {
	marker := "⚪"
	if b.Significant() {
		marker = "✅"
	}
	fmt.Printf("\n=== BOOTSTRAP (%d draws, φ=%.3f) ===\n", b.Draws, b.Phi)
	fmt.Printf("Null run length: mean %.2f, median %.1f, critical %d\n", b.NullMean, b.NullMedian, b.CriticalRun)
	fmt.Printf("%s Observed run %d, p=%s\n", marker, b.ObservedRun, formatP(b.PValue))
}

func printHistogram(runs []int, observed int) {
	counts := make(map[int]int)
	maxRun := observed
	for _, r := range runs {
		counts[r]++
		if r > maxRun {
			maxRun = r
		}
	}

	fmt.Printf("\nNull distribution:\n")
	for length := 0; length <= maxRun; length++ {
		n := counts[length]
		if n == 0 && length != observed {
			continue
		}
		bar := strings.Repeat("█", (n*50+len(runs)-1)/max(len(runs), 1))
		marker := ""
		if length == observed {
			marker = " ◀ observed"
		}
		fmt.Printf("%4d | %-50s %d%s\n", length, bar, n, marker)
	}
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Printf("⚠️  %s\n", w)
	}
}

func formatP(p float64) string {
	if p != p {
		return "   n/a"
	}
	if p < 0.0001 {
		return "<.0001"
	}
	return fmt.Sprintf("%.4f", p)
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
