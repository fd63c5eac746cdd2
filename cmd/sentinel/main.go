package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/vigil/internal/config"
	"github.com/okian/vigil/internal/domain/classifier"
	sig "github.com/okian/vigil/internal/domain/signal"
	"github.com/okian/vigil/internal/sentinel"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

func main() {
	var (
		serverURL   = flag.String("server", "", "supervising server base URL (overrides config)")
		sessionID   = flag.String("session", "", "session id issued by the server; created on the fly when empty")
		token       = flag.String("token", "", "session token paired with -session")
		candidate   = flag.String("candidate", "", "candidate name used when self-registering a session")
		noDashboard = flag.Bool("no-dashboard", false, "suppress the local status line")
		trainModel  = flag.Bool("train-model", false, "train the classifier on synthetic data and exit")
		modelDir    = flag.String("model-dir", "", "directory for classifier artifacts (overrides config)")
		profile     = flag.String("profile", "genuine", "simulated signal profile: genuine or assisted")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	if *serverURL == "" {
		*serverURL = cfg.ServerURL
	}
	if *modelDir == "" {
		*modelDir = cfg.ModelDir
	}

	if *trainModel {
		if err := train(ctx, *modelDir); err != nil {
			log.Error(ctx, "training failed", logger.Error(err))
			os.Exit(1)
		}
		return
	}

	clf, trained := classifier.Select(*modelDir)
	metrics.UpdateTrainedVariantActive(trained)
	if trained {
		log.Info(ctx, "using trained classifier", logger.String("model_dir", *modelDir))
	} else {
		log.Info(ctx, "using rule-based classifier")
	}

	client := sentinel.NewReportClient(*serverURL,
		sentinel.WithRequestTimeout(time.Duration(cfg.ReportTimeoutSeconds)*time.Second))

	// Self-register when no credentials were handed over.
	selfRegistered := false
	if *sessionID == "" {
		name := *candidate
		if name == "" {
			if host, err := os.Hostname(); err == nil {
				name = host
			} else {
				name = "unnamed-candidate"
			}
		}
		id, tok, err := client.CreateSession(ctx, name)
		if err != nil {
			log.Error(ctx, "session registration failed", logger.Error(err))
			os.Exit(1)
		}
		*sessionID, *token = id, tok
		selfRegistered = true
		log.Info(ctx, "session registered",
			logger.String("session_id", id), logger.String("candidate_name", name))
	}

	source := sig.NewSimulatedSource(sig.WithProfile(sig.ParseProfile(*profile)))
	runner := sentinel.NewRunner(client, *sessionID, *token, source,
		sentinel.WithClassifier(clf),
		sentinel.WithDashboard(!*noDashboard),
		sentinel.WithIntervals(
			time.Duration(cfg.ProcessIntervalSeconds)*time.Second,
			time.Duration(cfg.AudioIntervalSeconds)*time.Second,
			time.Duration(cfg.BehaviorIntervalSeconds)*time.Second,
			time.Duration(cfg.ReportIntervalSeconds)*time.Second,
		),
	)

	summary := runner.Run(ctx)

	// The run context is gone at this point; use a short independent one
	// for teardown.
	teardownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if selfRegistered {
		if err := client.EndSession(teardownCtx, *sessionID); err != nil {
			log.Warn(teardownCtx, "failed to end session on server", logger.Error(err))
		}
	}

	path, err := summary.WriteFile(".")
	if err != nil {
		log.Error(teardownCtx, "failed to write session report", logger.Error(err))
		os.Exit(1)
	}
	log.Info(teardownCtx, "session report written",
		logger.String("path", path),
		logger.Float64("mean_score", summary.MeanScore),
		logger.Int("total_alerts", summary.TotalAlerts),
	)
}

// train bootstraps the ensemble on synthetic data and stores the paired
// artifacts under dir.
func train(ctx context.Context, dir string) error {
	log := logger.Get()
	log.Info(ctx, "training classifier on synthetic data", logger.String("model_dir", dir))

	ensemble, err := classifier.Bootstrap()
	if err != nil {
		return err
	}
	if err := classifier.Save(dir, ensemble); err != nil {
		return err
	}

	log.Info(ctx, "classifier artifacts written",
		logger.String("model", classifier.ModelArtifact),
		logger.String("scaler", classifier.ScalerArtifact),
	)
	return nil
}
