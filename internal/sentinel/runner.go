// Package sentinel is the monitored-endpoint runtime. It polls the
// suspicion-signal collaborators on independent cadences, fuses their
// scores through the classifier, evaluates the alert rules, and reports
// full-state snapshots to the supervising server.
package sentinel

import (
	"context"
	"time"

	"github.com/okian/vigil/internal/domain/alerting"
	"github.com/okian/vigil/internal/domain/classifier"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/signal"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// Default polling cadences. The signal loops refresh raw readings; the
// report loop runs the full analyze-and-transmit cycle.
const (
	defaultProcessInterval  = 5 * time.Second
	defaultAudioInterval    = 2 * time.Second
	defaultBehaviorInterval = 1 * time.Second
	defaultReportInterval   = 5 * time.Second
)

// Sampler refreshes a collaborator's raw readings. The simulated source
// implements it; real capture backends would too.
type Sampler interface {
	Sample()
}

// Runner owns the endpoint-side polling loops for one session.
type Runner struct {
	client  *ReportClient
	session string
	token   string

	process  signal.ProcessSignal
	audio    signal.AudioSignal
	behavior signal.BehaviorSignal
	sampler  Sampler

	agg  *signal.Aggregator
	clf  classifier.Classifier
	eval *alerting.Evaluator

	history *alerting.RiskHistory
	log     *alerting.Log

	processInterval  time.Duration
	audioInterval    time.Duration
	behaviorInterval time.Duration
	reportInterval   time.Duration

	dashboard bool
	started   time.Time

	logger logger.Logger
}

// RunnerOption applies a configuration option to the Runner.
type RunnerOption func(*Runner)

// WithIntervals overrides the polling cadences. Non-positive values keep
// the defaults.
func WithIntervals(process, audio, behavior, report time.Duration) RunnerOption {
	return func(r *Runner) {
		if process > 0 {
			r.processInterval = process
		}
		if audio > 0 {
			r.audioInterval = audio
		}
		if behavior > 0 {
			r.behaviorInterval = behavior
		}
		if report > 0 {
			r.reportInterval = report
		}
	}
}

// WithDashboard toggles the local status line printed each report cycle.
func WithDashboard(enabled bool) RunnerOption {
	return func(r *Runner) {
		r.dashboard = enabled
	}
}

// WithClassifier replaces the fusion classifier.
func WithClassifier(c classifier.Classifier) RunnerOption {
	return func(r *Runner) {
		if c != nil {
			r.clf = c
		}
	}
}

// WithRunnerLogger sets a custom logger.
func WithRunnerLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner wires a Runner over a simulated source. The source serves all
// three collaborator contracts and is refreshed by every signal loop.
func NewRunner(client *ReportClient, sessionID, token string, source *signal.SimulatedSource, opts ...RunnerOption) *Runner {
	r := &Runner{
		client:           client,
		session:          sessionID,
		token:            token,
		process:          source,
		audio:            source.Audio(),
		behavior:         source.Behavior(),
		sampler:          source,
		clf:              classifier.NewRuleBased(),
		eval:             alerting.NewEvaluator(),
		history:          alerting.NewRiskHistory(0),
		log:              alerting.NewLog(),
		processInterval:  defaultProcessInterval,
		audioInterval:    defaultAudioInterval,
		behaviorInterval: defaultBehaviorInterval,
		reportInterval:   defaultReportInterval,
		dashboard:        true,
	}
	r.agg = signal.NewAggregator(r.process, r.audio, r.behavior)
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get()
	}
	return r
}

// Run drives the polling loops until ctx is canceled, then returns the
// final session summary. Failed transmissions are absorbed; the next cycle
// retries with fresher state anyway.
func (r *Runner) Run(ctx context.Context) Summary {
	r.started = time.Now()
	processTicker := time.NewTicker(r.processInterval)
	audioTicker := time.NewTicker(r.audioInterval)
	behaviorTicker := time.NewTicker(r.behaviorInterval)
	reportTicker := time.NewTicker(r.reportInterval)
	defer processTicker.Stop()
	defer audioTicker.Stop()
	defer behaviorTicker.Stop()
	defer reportTicker.Stop()

	r.logger.Info(ctx, "monitoring started",
		logger.String("session_id", r.session),
		logger.Any("report_interval", r.reportInterval),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info(context.Background(), "monitoring stopped",
				logger.String("session_id", r.session))
			return r.summary()
		case <-processTicker.C:
			r.sampler.Sample()
		case <-audioTicker.C:
			r.sampler.Sample()
		case <-behaviorTicker.C:
			r.sampler.Sample()
		case <-reportTicker.C:
			r.cycle(ctx)
		}
	}
}

// cycle runs one analyze-and-transmit pass.
func (r *Runner) cycle(ctx context.Context) {
	fv := r.agg.Collect(ctx)

	start := time.Now()
	score := r.clf.Predict(fv)
	metrics.RecordPredictLatency(float64(time.Since(start).Microseconds()) / 1e3)

	r.history.Append(score)
	r.collectAlerts(fv)

	report := model.DetectionReport{
		SessionID:           r.session,
		Token:               r.token,
		DetectionScore:      score,
		ProcessScore:        fv.ProcessScore,
		AudioScore:          fv.AudioScore,
		BehaviorScore:       fv.BehaviorScore,
		Alerts:              r.log.Last(model.MaxReportAlerts),
		SuspiciousProcesses: r.process.Matches(),
		Timestamp:           fv.CapturedAt,
	}

	if err := r.client.Send(ctx, report); err != nil {
		r.logger.Warn(ctx, "report transmission failed",
			logger.String("session_id", r.session),
			logger.Error(err),
		)
	}

	if r.dashboard {
		r.logger.Info(ctx, "status",
			logger.Float64("detection_score", score),
			logger.Float64("process", fv.ProcessScore),
			logger.Float64("audio", fv.AudioScore),
			logger.Float64("behavior", fv.BehaviorScore),
			logger.Int("alerts", r.log.Len()),
		)
	}
}

// collectAlerts evaluates every rule against the current readings and
// appends whatever fires.
func (r *Runner) collectAlerts(fv model.FeatureVector) {
	var fired []model.Alert

	if a, ok := r.eval.Process(r.process.Matches()); ok {
		fired = append(fired, a)
	}
	if features, ok := r.audio.Analyze(); ok {
		if a, fire := r.eval.Audio(features, ok); fire {
			fired = append(fired, a)
		}
	}
	fired = append(fired, r.eval.Behavior(r.behavior.ActivitySummary())...)
	if a, ok := r.eval.Fused(r.history); ok {
		fired = append(fired, a)
	}

	for _, a := range fired {
		metrics.RecordAlertEmitted(string(a.Type), string(a.Severity))
	}
	r.log.Append(fired...)
}

// History exposes the risk ring, for tests and the local dashboard.
func (r *Runner) History() *alerting.RiskHistory { return r.history }

// AlertLog exposes the append-only alert log.
func (r *Runner) AlertLog() *alerting.Log { return r.log }
