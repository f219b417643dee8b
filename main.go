package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vonSplit/bayes-tree/bayesdist"
	"github.com/vonSplit/bayes-tree/config"
)

const (
	Version = "0.1.0"
	appName = "bayes-tree"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	logLevel   string
	dataPath   string
	format     string
	prior      string
	categories int
	alpha      float64
	alphas     []float64
	probs      []float64
	seed       uint64
	threads    int
	progress   bool
	samples    int
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Categorical observations with a Dirichlet conjugate prior",
		Long: `bayes-tree keeps a Dirichlet posterior over the probabilities of a
categorical distribution and updates it from observed counts.

Observation files hold one batch per line, either as a count per category
(--format counts) or as a list of category indices (--format labels).`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.dataPath, "data", "", "Observation file path")
	flags.StringVar(&opts.format, "format", config.FormatCounts, "Observation file format (counts, labels)")
	flags.StringVar(&opts.prior, "prior", bayesdist.Jeffreys.String(), "Prior type (jeffreys, equal-alpha, manual-alphas, manual-probs)")
	flags.IntVar(&opts.categories, "categories", 2, "Number of categories for jeffreys and equal-alpha priors")
	flags.Float64Var(&opts.alpha, "alpha", 1.0, "Shared alpha for the equal-alpha prior")
	flags.Float64SliceVar(&opts.alphas, "alphas", nil, "Comma separated alphas for the manual-alphas prior")
	flags.Float64SliceVar(&opts.probs, "probs", nil, "Comma separated probabilities for the manual-probs prior")
	flags.Uint64Var(&opts.seed, "seed", 0, "Random seed (0 = nondeterministic)")
	flags.IntVar(&opts.threads, "threads", 4, "Number of scoring goroutines")

	posterior := &cobra.Command{
		Use:   "posterior",
		Short: "Update the prior with every batch and print the posterior",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPosterior(cmd, opts)
		},
	}
	posterior.Flags().BoolVar(&opts.progress, "progress", false, "Show a progress bar while updating")

	score := &cobra.Command{
		Use:   "score",
		Short: "Print the marginal log likelihood of every batch under the prior",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, opts)
		},
	}

	sample := &cobra.Command{
		Use:   "sample",
		Short: "Print probability vectors drawn from the posterior",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(cmd, opts)
		},
	}
	sample.Flags().IntVarP(&opts.samples, "num", "n", 5, "Number of samples")

	cmd.AddCommand(posterior, score, sample, &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})).
		With("run_id", uuid.New().String())
}

// loadConfig reads the config file, if any, and lets explicitly set flags
// override it.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		var err error
		cfg, err = config.LoadFromFile(opts.configPath)
		if err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Path = opts.dataPath
	}
	if flags.Changed("format") {
		cfg.Data.Format = opts.format
	}
	if flags.Changed("prior") {
		cfg.Prior.Type = opts.prior
	}
	if flags.Changed("categories") {
		cfg.Prior.Categories = opts.categories
	}
	if flags.Changed("alpha") {
		cfg.Prior.Alpha = opts.alpha
	}
	if flags.Changed("alphas") {
		cfg.Prior.Alphas = opts.alphas
	}
	if flags.Changed("probs") {
		cfg.Prior.Probs = opts.probs
	}
	if flags.Changed("seed") {
		cfg.Seed = opts.seed
	}
	if flags.Changed("threads") {
		cfg.Threads = opts.threads
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

type session struct {
	logger        *slog.Logger
	cfg           *config.Config
	model         *bayesdist.Conjugate
	dataContainer *bayesdist.DataContainer
}

func setup(cmd *cobra.Command, opts *options, needData bool) (*session, error) {
	logger := newLogger(opts.logLevel)
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	model, err := cfg.NewModel()
	if err != nil {
		return nil, fmt.Errorf("building model: %w", err)
	}
	logger.Info("Building model",
		"prior", model.PriorType(),
		"categories", model.NumCategories(),
		"alphas", model.Alphas())
	s := &session{logger: logger, cfg: cfg, model: model}

	if !needData && cfg.Data.Path == "" {
		return s, nil
	}
	s.dataContainer, err = cfg.LoadData()
	if err != nil {
		return nil, fmt.Errorf("loading data: %w", err)
	}
	logger.Info("Loading data", "path", cfg.Data.Path, "batches", s.dataContainer.Size)
	return s, nil
}

func runPosterior(cmd *cobra.Command, opts *options) error {
	s, err := setup(cmd, opts, true)
	if err != nil {
		return err
	}
	model := s.model
	applied := bayesdist.UpdateFromBatchesAPI(model, s.dataContainer, s.logger, opts.progress)
	s.logger.Info("Updated posterior", "applied", applied, "skipped", s.dataContainer.Size-applied)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "prior", model.PriorType())
	fmt.Fprintln(out, "counts", s.dataContainer.Total())
	fmt.Fprintln(out, "alphas", model.Alphas())
	fmt.Fprintln(out, "mean", model.ObservationDistribution().Probs())
	fmt.Fprintln(out, "variance", model.ParameterDistribution().Variance())
	perplexity, err := bayesdist.CalcPerplexity(model, s.dataContainer)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "perplexity", perplexity)
	return nil
}

func runScore(cmd *cobra.Command, opts *options) error {
	s, err := setup(cmd, opts, true)
	if err != nil {
		return err
	}
	scores, err := bayesdist.ScoreBatchesAPI(s.model, s.dataContainer, s.cfg.Threads)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, score := range scores {
		fmt.Fprintln(out, i, s.dataContainer.GetCounts(i), score)
	}
	return nil
}

func runSample(cmd *cobra.Command, opts *options) error {
	if opts.samples < 0 {
		return fmt.Errorf("--num must not be negative, got %d", opts.samples)
	}
	s, err := setup(cmd, opts, false)
	if err != nil {
		return err
	}
	if s.dataContainer != nil {
		applied := bayesdist.UpdateFromBatchesAPI(s.model, s.dataContainer, s.logger, false)
		s.logger.Debug("Updated posterior", "applied", applied)
	}
	samples, err := s.model.ParameterDistribution().SampleN(opts.samples)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, x := range samples {
		fmt.Fprintln(out, x)
	}
	return nil
}
