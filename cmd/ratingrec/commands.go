// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/ratingrec/internal/app"
	"github.com/tomtom215/ratingrec/internal/config"
	"github.com/tomtom215/ratingrec/internal/dataset"
	"github.com/tomtom215/ratingrec/internal/logging"
	"github.com/tomtom215/ratingrec/internal/recommend"
	"github.com/tomtom215/ratingrec/internal/validation"
)

// options holds every subcommand flag. Each subcommand registers the subset
// it uses; NaN and negative values mean "not set".
type options struct {
	configPath string
	logLevel   string

	k             int
	minSimilarity float64
	n             int
	scores        bool
	users         string

	seed        int64
	sampleUsers int
	testProb    float64
	maxFiles    int
	sourceDir   string
	rebuild     bool
}

func commonFlags(fs *flag.FlagSet, o *options) {
	fs.StringVar(&o.configPath, "config", "", "path to a YAML config file (overrides CONFIG_PATH)")
	fs.StringVar(&o.logLevel, "log-level", "", "log level (overrides logging.level)")
}

func neighborFlags(fs *flag.FlagSet, o *options) {
	fs.IntVar(&o.k, "k", 0, "maximum number of neighbors (0 uses recommend.k)")
	fs.Float64Var(&o.minSimilarity, "min-similarity", math.NaN(), "exclusive similarity threshold (default recommend.min_similarity)")
}

func recommendFlags(fs *flag.FlagSet, o *options) {
	neighborFlags(fs, o)
	fs.IntVar(&o.n, "n", 0, "number of items to recommend (0 uses recommend.n_items)")
	fs.BoolVar(&o.scores, "scores", false, "include per-item scores")
}

func evaluateFlags(fs *flag.FlagSet, o *options) {
	recommendFlags(fs, o)
	fs.StringVar(&o.users, "users", "", "comma-separated users to evaluate (default: every user with test ratings)")
}

func prepareFlags(fs *flag.FlagSet, o *options) {
	fs.Int64Var(&o.seed, "seed", math.MinInt64, "sampling seed (default dataset.seed)")
	fs.IntVar(&o.sampleUsers, "sample-users", -1, "number of users to sample, 0 for all (default dataset.sample_users)")
	fs.Float64Var(&o.testProb, "test-probability", math.NaN(), "probability a rating goes to test (default dataset.test_probability)")
	fs.IntVar(&o.maxFiles, "max-files", -1, "maximum source files, 0 for all (default dataset.max_files)")
	fs.StringVar(&o.sourceDir, "source", "", "directory of mv_<movie>.txt files (default dataset.source_dir)")
	fs.BoolVar(&o.rebuild, "rebuild", false, "replace the stored split with a fresh one (implied by any override above)")
}

// env is the per-invocation state shared by the subcommands.
type env struct {
	cfg    *config.Config
	opts   *options
	comps  *app.Components
	logger zerolog.Logger
	stdout io.Writer
}

func newEnv(fs *flag.FlagSet, o *options, stdout, stderr io.Writer) (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	overridden, err := applyPrepareOverrides(fs, cfg, o)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.LoggerConfig()
	logCfg.Output = stderr
	if o.logLevel != "" {
		logCfg.Level = o.logLevel
	}
	logging.Init(logCfg)
	logger := logging.WithComponent("cli")

	comps, err := app.Build(cfg, logger)
	if err != nil {
		return nil, err
	}
	// A stored split was built with other settings; overrides only take
	// effect through a rebuild.
	comps.Preparer.Rebuild = overridden || o.rebuild
	return &env{cfg: cfg, opts: o, comps: comps, logger: logger, stdout: stdout}, nil
}

// applyPrepareOverrides copies explicitly set prepare flags into cfg and
// re-validates it. It reports whether any override was set.
func applyPrepareOverrides(fs *flag.FlagSet, cfg *config.Config, o *options) (bool, error) {
	changed := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Dataset.Seed = o.seed
		case "sample-users":
			cfg.Dataset.SampleUsers = o.sampleUsers
		case "test-probability":
			cfg.Dataset.TestProb = o.testProb
		case "max-files":
			cfg.Dataset.MaxFiles = o.maxFiles
		case "source":
			cfg.Dataset.SourceDir = o.sourceDir
		default:
			return
		}
		changed = true
	})
	if !changed {
		return false, nil
	}
	return true, cfg.Validate()
}

func (e *env) close() {
	if err := e.comps.Close(); err != nil {
		e.logger.Warn().Err(err).Msg("closing dataset provider")
	}
}

// load prepares the dataset and installs it in the engine.
func (e *env) load(ctx context.Context) (dataset.Report, error) {
	ds, report, err := e.comps.Preparer.Prepare(ctx)
	if err != nil {
		return report, err
	}
	if err := e.comps.Engine.SetDataset(ds); err != nil {
		return report, err
	}
	return report, nil
}

func (e *env) minSimilarity() *float64 {
	if math.IsNaN(e.opts.minSimilarity) {
		return nil
	}
	v := e.opts.minSimilarity
	return &v
}

func (e *env) print(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	out = append(out, '\n')
	_, err = e.stdout.Write(out)
	return err
}

func validate(v interface{}) error {
	if verr := validation.ValidateStruct(v); verr != nil {
		return fmt.Errorf("%w: %s", errUsage, verr.Error())
	}
	return nil
}

func expectArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %d argument(s), got %d", errUsage, n, len(args))
	}
	return nil
}

func runPrepare(ctx context.Context, e *env, args []string) error {
	if err := expectArgs(args, 0); err != nil {
		return err
	}
	report, err := e.load(ctx)
	if err != nil {
		return err
	}
	return e.print(struct {
		Provider string                 `json:"provider"`
		Report   dataset.Report         `json:"report"`
		Stats    recommend.DatasetStats `json:"stats"`
	}{
		Provider: e.comps.Provider.Name(),
		Report:   report,
		Stats:    e.comps.Engine.Stats().Dataset,
	})
}

func runSimilarity(ctx context.Context, e *env, args []string) error {
	if err := expectArgs(args, 2); err != nil {
		return err
	}
	a, b := recommend.UserID(args[0]), recommend.UserID(args[1])
	if _, err := e.load(ctx); err != nil {
		return err
	}
	sim, err := e.comps.Engine.Similarity(ctx, a, b)
	if err != nil {
		return err
	}
	return e.print(struct {
		A          recommend.UserID `json:"a"`
		B          recommend.UserID `json:"b"`
		Similarity float64          `json:"similarity"`
	}{a, b, sim})
}

func runNeighbors(ctx context.Context, e *env, args []string) error {
	if err := expectArgs(args, 1); err != nil {
		return err
	}
	req := recommend.NeighborsRequest{
		UserID:        recommend.UserID(args[0]),
		K:             e.opts.k,
		MinSimilarity: e.minSimilarity(),
	}
	if err := validate(&req); err != nil {
		return err
	}
	if _, err := e.load(ctx); err != nil {
		return err
	}
	resp, err := e.comps.Engine.Neighbors(ctx, req)
	if err != nil {
		return err
	}
	return e.print(resp)
}

func runRecommend(ctx context.Context, e *env, args []string) error {
	if err := expectArgs(args, 1); err != nil {
		return err
	}
	req := recommend.Request{
		UserID:        recommend.UserID(args[0]),
		K:             e.opts.k,
		MinSimilarity: e.minSimilarity(),
		NItems:        e.opts.n,
		WithScores:    e.opts.scores,
	}
	if err := validate(&req); err != nil {
		return err
	}
	if _, err := e.load(ctx); err != nil {
		return err
	}
	resp, err := e.comps.Engine.Recommend(ctx, req)
	if err != nil {
		return err
	}
	return e.print(resp)
}

func runEvaluate(ctx context.Context, e *env, args []string) error {
	if err := expectArgs(args, 0); err != nil {
		return err
	}
	req := recommend.EvalRequest{
		Users:         splitUsers(e.opts.users),
		K:             e.opts.k,
		MinSimilarity: e.minSimilarity(),
		NItems:        e.opts.n,
	}
	if err := validate(&req); err != nil {
		return err
	}
	if _, err := e.load(ctx); err != nil {
		return err
	}
	report, err := e.comps.Engine.Evaluate(ctx, req)
	if err != nil {
		return err
	}
	return e.print(report)
}

func splitUsers(s string) []recommend.UserID {
	var users []recommend.UserID
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			users = append(users, recommend.UserID(part))
		}
	}
	return users
}
