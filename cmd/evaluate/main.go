// Command evaluate runs labelled card images through the reader and reports
// exact-match rate, character error rate and group error rate.
//
//	evaluate -manifest testdata/cards.yaml [-threshold 12] [-json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/card-number-reader/internal/config"
	"github.com/anime-shed/card-number-reader/internal/container"
	apperrors "github.com/anime-shed/card-number-reader/internal/errors"
	"github.com/anime-shed/card-number-reader/internal/evaluation"
	"github.com/anime-shed/card-number-reader/internal/logger"
	"github.com/anime-shed/card-number-reader/internal/service"
)

func main() {
	manifestPath := flag.String("manifest", "", "path to the YAML evaluation manifest")
	threshold := flag.Float64("threshold", 0, "cluster threshold in pixels (overrides manifest and CLUSTER_THRESHOLD)")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	flag.Parse()

	if *manifestPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Keep stdout for the report
	logger.Logger.SetOutput(os.Stderr)
	logger.Logger.SetLevel(logrus.WarnLevel)

	manifest, err := evaluation.LoadManifest(*manifestPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load manifest")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}
	switch {
	case *threshold > 0:
		cfg.ClusterThreshold = *threshold
	case manifest.Threshold > 0:
		cfg.ClusterThreshold = manifest.Threshold
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize container")
	}
	defer c.Close(context.Background())

	rep, err := evaluation.Run(ctx, manifest, extractor(c.Service()))
	if err != nil {
		logger.WithError(err).Error("Evaluation interrupted")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(rep)
	} else {
		err = evaluation.WriteText(os.Stdout, rep)
	}
	if err != nil {
		logger.WithError(err).Error("Failed to write report")
	}
}

func extractor(svc service.CardNumberService) evaluation.ExtractFunc {
	return func(ctx context.Context, path string) (evaluation.Prediction, error) {
		f, err := os.Open(path)
		if err != nil {
			return evaluation.Prediction{}, err
		}
		defer f.Close()

		resp, err := svc.ExtractFromReader(ctx, f, service.ExtractOptions{
			Source:    service.SourceFile,
			SourceRef: path,
		})
		if apperrors.IsType(err, apperrors.ErrorTypeCardNotFound) {
			return evaluation.Prediction{}, nil
		}
		if err != nil {
			return evaluation.Prediction{}, err
		}
		return evaluation.Prediction{Number: resp.CardNumber, Method: resp.Method}, nil
	}
}
