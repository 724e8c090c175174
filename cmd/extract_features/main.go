package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/athapong/relfeat/pkg/config"
	"github.com/athapong/relfeat/pkg/evidence"
	"github.com/athapong/relfeat/pkg/metrics"
	"github.com/athapong/relfeat/pkg/pipeline"
	"github.com/athapong/relfeat/pkg/resolver"
	"github.com/athapong/relfeat/pkg/storage"
)

var (
	envFile       = flag.String("env", ".env", "Path to environment file")
	configFile    = flag.String("config", "experiment.yaml", "Experiment file listing the features to extract")
	inputPath     = flag.String("input", "", "Corpus file or directory of .jsonl corpus files")
	outputFile    = flag.String("output", "features.json", "Output file path for the feature matrix")
	metricsOutput = flag.String("metrics-output", "", "Write metrics in text exposition format to this file")
	logLevel      = flag.String("log-level", "info", "Logging level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	// Configure logging
	logger := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := godotenv.Load(*envFile); err != nil {
		logger.Debugf("No env file loaded from %s: %v", *envFile, err)
	}

	if *inputPath == "" {
		logger.Fatal("Input corpus must be specified")
	}

	exp, err := config.Load(*configFile)
	if err != nil {
		logger.Fatalf("Failed to load experiment: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res := resolver.New(resolver.Builtin(), resolver.WithLogger(logger))
	specs := exp.Features()
	fs, err := res.Resolve(specs)
	if err != nil {
		logger.Fatalf("Failed to resolve features: %v", err)
	}

	reader := storage.NewCorpusReader(evidence.NewHydrator(evidence.WithLogger(logger)), logger)
	evs, err := reader.ReadPath(ctx, *inputPath)
	if err != nil {
		logger.Fatalf("Failed to read corpus: %v", err)
	}
	if len(evs) == 0 {
		logger.Fatal("No evidences found")
	}

	logger.Infof("Extracting %d features from %d evidences...", len(fs), len(evs))

	extractor := pipeline.NewExtractor(fs,
		pipeline.WithWorkers(exp.Workers),
		pipeline.WithBatchSize(exp.BatchSize),
		pipeline.WithLogger(logger),
	)
	rows, err := extractor.Extract(ctx, evs)
	if err != nil {
		logger.Fatalf("Failed to extract features: %v", err)
	}

	vectorizer := pipeline.NewVectorizer(extractor.Columns())
	matrix, err := vectorizer.FitTransform(rows)
	if err != nil {
		logger.Fatalf("Failed to vectorize features: %v", err)
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.EvidenceID
	}

	store := storage.NewJSONMatrixStore(*outputFile)
	if err := store.StoreMatrix(ctx, &storage.FeatureMatrix{
		Relation:    exp.Relation,
		Columns:     vectorizer.Columns(),
		IDs:         ids,
		Rows:        matrix,
		GeneratedAt: time.Now().UTC(),
	}); err != nil {
		logger.Fatalf("Failed to store feature matrix: %v", err)
	}

	logger.Infof("Feature matrix generated with %s", vectorizer.Describe())
	logger.Infof("Feature matrix saved to %s", *outputFile)

	if *metricsOutput != "" {
		metrics.UpdateSystemMetrics()
		if err := prometheus.WriteToTextfile(*metricsOutput, prometheus.DefaultGatherer); err != nil {
			logger.Errorf("Failed to write metrics: %v", err)
		} else {
			logger.Infof("Metrics saved to %s", *metricsOutput)
		}
	}
}
