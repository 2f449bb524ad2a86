//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2026 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	_ "github.com/KimMachineGun/automemlimit"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/graphstore/adapters/repos/graph/hugegraph"
	enterrors "github.com/weaviate/graphstore/entities/errors"
	"github.com/weaviate/graphstore/entities/graph"
	"github.com/weaviate/graphstore/usecases/config"
	"github.com/weaviate/graphstore/usecases/monitoring"
	"github.com/weaviate/graphstore/usecases/resources"
	"github.com/weaviate/graphstore/usecases/undirected"
)

// Options represents Command line options
type Options struct {
	ConfigFile    string  `long:"config-file" description:"path to the yaml config file" default:"./graphstore.yaml"`
	Nodes         uint64  `long:"nodes" description:"number of nodes to generate" default:"1000000"`
	AvgDegree     uint64  `long:"avg-degree" description:"average number of relationships per node" default:"10"`
	Skew          float64 `long:"skew" description:"exponent skewing targets towards low ids, 1 is uniform" default:"2"`
	Seed          int64   `long:"seed" description:"seed of the random relationship generator" default:"42"`
	Orientation   string  `long:"orientation" description:"natural, reverse or undirected, overrides the config"`
	Concurrency   int     `long:"concurrency" description:"number of workers, overrides the config"`
	ToUndirected  bool    `long:"to-undirected" description:"convert the built relationships to undirected ones"`
	MetricsListen string  `long:"metrics.listen" description:"address to serve prometheus metrics at, overrides the config"`
	Hold          bool    `long:"hold" description:"keep serving metrics until interrupted"`
}

func main() {
	var opts Options
	log := logrus.New()

	_, err := flags.Parse(&opts)
	if err != nil {
		if flags.WroteHelp(err) {
			return
		}
		log.Fatal("failed to parse command line args", err)
	}

	cfg, err := config.Load(opts.ConfigFile, log)
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if err := applyOptions(&cfg, opts); err != nil {
		log.WithError(err).Fatal("invalid command line args")
	}
	logger := cfg.NewLogger().WithField("app", "graphbench")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	metrics := startMetrics(ctx, logger, cfg, opts)

	if err := run(ctx, logger, cfg, opts, metrics); err != nil {
		if enterrors.IsTransient(err) {
			logger.WithError(err).Fatal("not enough memory for the requested graph, " +
				"lower --nodes or --avg-degree or raise the memory limit")
		}
		logger.WithError(err).Fatal("benchmark failed")
	}

	if opts.Hold && metrics != nil {
		logger.Info("holding until interrupted")
		<-ctx.Done()
	}
}

func applyOptions(cfg *config.Config, opts Options) error {
	if opts.Orientation != "" {
		orientation, err := graph.ParseOrientation(opts.Orientation)
		if err != nil {
			return err
		}
		cfg.Orientation = orientation
	}
	if opts.Concurrency > 0 {
		cfg.Concurrency = opts.Concurrency
	}
	if opts.MetricsListen != "" {
		cfg.Monitoring.Enabled = true
	}
	if opts.Nodes == 0 {
		return fmt.Errorf("--nodes must be positive")
	}
	if opts.Skew <= 0 {
		return fmt.Errorf("--skew must be positive, got %v", opts.Skew)
	}
	return nil
}

func startMetrics(ctx context.Context, logger logrus.FieldLogger, cfg config.Config,
	opts Options,
) *monitoring.PrometheusMetrics {
	if !cfg.Monitoring.Enabled {
		return nil
	}

	addr := opts.MetricsListen
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Monitoring.Port)
	}

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewPrometheusMetrics(reg)
	enterrors.GoWrapper(func() {
		if err := monitoring.Serve(ctx, logger, addr, reg, metrics); err != nil {
			logger.WithError(err).Error("metrics server stopped")
		}
	}, logger)
	return metrics
}

func run(ctx context.Context, logger logrus.FieldLogger, cfg config.Config, opts Options,
	metrics *monitoring.PrometheusMetrics,
) error {
	relCount := opts.Nodes * opts.AvgDegree
	if cfg.Orientation == graph.Undirected || opts.ToUndirected {
		relCount *= 2
	}
	if _, err := resources.CheckAdjacencyMemory(logger, opts.Nodes, relCount,
		cfg.MemoryLimitBytes()); err != nil {
		return err
	}

	gen := generator{
		nodes:      opts.Nodes,
		avgDegree:  opts.AvgDegree,
		skew:       opts.Skew,
		seed:       opts.Seed,
		properties: len(cfg.Properties),
	}

	started := time.Now()
	ids, err := gen.idMap(logger, cfg.Concurrency, metrics)
	if err != nil {
		return err
	}
	b, err := newBuilder(cfg, ids, logger, metrics)
	if err != nil {
		return err
	}
	if err := gen.relationships(ctx, logger, cfg.Concurrency, b); err != nil {
		return err
	}
	logger.WithField("action", "generate").WithField("took", time.Since(started)).
		WithField("relationships", b.RelationshipCount()).Info("generated relationships")

	rels, err := b.BuildAll(ctx)
	if err != nil {
		return err
	}
	g, err := hugegraph.New(opts.Nodes, rels)
	if err != nil {
		return err
	}
	logDegrees(logger, "built", g)

	if opts.ToUndirected {
		rels, err := undirected.ToUndirected(ctx, g, undirected.Config{
			Concurrency:       cfg.Concurrency,
			Aggregation:       cfg.Aggregation,
			Logger:            logger,
			PrometheusMetrics: metrics,
		})
		if err != nil {
			return err
		}
		u, err := hugegraph.New(opts.Nodes, rels)
		if err != nil {
			return err
		}
		logDegrees(logger, "undirected", u)
	}

	return nil
}

func logDegrees(logger logrus.FieldLogger, stage string, g *hugegraph.Graph) {
	stats := computeDegreeStats(g)
	logger.WithFields(logrus.Fields{
		"action":        "degree_stats",
		"stage":         stage,
		"relationships": g.RelationshipCount(),
		"bytes":         g.Topology().AdjacencyList.SizeInBytes(),
		"mean":          stats.Mean,
		"std_dev":       stats.StdDev,
		"median":        stats.Median,
		"p99":           stats.P99,
		"max":           stats.Max,
	}).Info("degree distribution")
}
