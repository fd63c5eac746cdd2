package signal

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
)

// Profile selects how the simulated collaborators behave.
type Profile string

// Simulated profiles. "genuine" keeps scores low; "assisted" drives them
// into alerting territory. Used to exercise the pipeline without real
// capture backends.
const (
	ProfileGenuine  Profile = "genuine"
	ProfileAssisted Profile = "assisted"
)

// Default simulation parameters.
const (
	defaultSimSeed = 42

	genuineScoreMax      = 0.25
	assistedScoreMin     = 0.65
	assistedScoreSpread  = 0.35
	assistedMatchChance  = 0.6
	assistedPauseMin     = 0.72
	assistedFluencyMin   = 0.82
	assistedRapidChance  = 0.5
	rapidTypingMeanMs    = 35.0
	normalTypingMeanMs   = 160.0
	simKeystrokeSamples  = 120
	genuineClipboardMax  = 0.2
	assistedClipboardMin = 0.75
)

// suspiciousProcessNames is the fixed keyword list the process collaborator
// matches against.
var suspiciousProcessNames = []string{
	"chatgpt", "claude", "copilot", "cluely", "yoodli",
	"gemini", "bard", "perplexity", "interviewcoder",
}

// score is a float64 safe for one writer and many readers.
type score struct {
	bits atomic.Uint64
}

func (s *score) store(v float64) { s.bits.Store(math.Float64bits(v)) }
func (s *score) load() float64   { return math.Float64frombits(s.bits.Load()) }

// SimulatedSource implements all three collaborator contracts with
// synthetic readings. Each Sample call refreshes the owned scores; readers
// see torn-free values via atomics. Output depends only on the seed and
// profile, so tests are reproducible.
type SimulatedSource struct {
	mu      sync.Mutex
	rng     *rand.Rand
	profile Profile

	processScore  score
	audioScore    score
	behaviorScore score

	matches  []string
	audio    AudioFeatures
	hasAudio bool
	activity ActivitySummary
}

// SimulatedOption applies a configuration option to a SimulatedSource.
type SimulatedOption func(*SimulatedSource)

// WithSeed sets the rng seed for deterministic runs.
func WithSeed(seed int64) SimulatedOption {
	return func(s *SimulatedSource) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic simulation, not security material
	}
}

// WithProfile selects the behavioral profile.
func WithProfile(p Profile) SimulatedOption {
	return func(s *SimulatedSource) {
		if p == ProfileGenuine || p == ProfileAssisted {
			s.profile = p
		}
	}
}

// NewSimulatedSource creates a simulated collaborator set.
func NewSimulatedSource(opts ...SimulatedOption) *SimulatedSource {
	s := &SimulatedSource{
		rng:     rand.New(rand.NewSource(defaultSimSeed)), //nolint:gosec // deterministic simulation
		profile: ProfileGenuine,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Sample()
	return s
}

// ParseProfile maps a CLI string to a Profile, defaulting to genuine.
func ParseProfile(s string) Profile {
	if strings.EqualFold(strings.TrimSpace(s), string(ProfileAssisted)) {
		return ProfileAssisted
	}
	return ProfileGenuine
}

// Sample refreshes every owned score and detail record. Only the owning
// poll loop calls this; concurrent readers use the accessor methods.
func (s *SimulatedSource) Sample() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.profile {
	case ProfileAssisted:
		s.sampleAssisted()
	default:
		s.sampleGenuine()
	}
}

func (s *SimulatedSource) sampleGenuine() {
	s.processScore.store(s.rng.Float64() * genuineScoreMax)
	s.audioScore.store(s.rng.Float64() * genuineScoreMax)
	s.behaviorScore.store(s.rng.Float64() * genuineScoreMax)

	s.matches = nil
	s.hasAudio = true
	s.audio = AudioFeatures{
		PausePatternScore: s.rng.Float64() * genuineScoreMax,
		FluencyScore:      0.3 + s.rng.Float64()*0.3,
	}
	s.activity = ActivitySummary{
		ClipboardAIScore:     s.rng.Float64() * genuineClipboardMax,
		RapidTypingDetected:  false,
		MeanInterKeyMillis:   normalTypingMeanMs + s.rng.Float64()*40,
		KeystrokeSampleCount: simKeystrokeSamples,
	}
}

func (s *SimulatedSource) sampleAssisted() {
	s.processScore.store(assistedScoreMin + s.rng.Float64()*assistedScoreSpread)
	s.audioScore.store(assistedScoreMin + s.rng.Float64()*assistedScoreSpread)
	s.behaviorScore.store(assistedScoreMin + s.rng.Float64()*assistedScoreSpread)

	s.matches = nil
	if s.rng.Float64() < assistedMatchChance {
		name := suspiciousProcessNames[s.rng.Intn(len(suspiciousProcessNames))]
		s.matches = []string{name + ".exe"}
	}
	s.hasAudio = true
	s.audio = AudioFeatures{
		PausePatternScore: assistedPauseMin + s.rng.Float64()*(1-assistedPauseMin),
		FluencyScore:      assistedFluencyMin + s.rng.Float64()*(1-assistedFluencyMin),
	}
	rapid := s.rng.Float64() < assistedRapidChance
	mean := normalTypingMeanMs
	if rapid {
		mean = rapidTypingMeanMs
	}
	s.activity = ActivitySummary{
		ClipboardAIScore:     assistedClipboardMin + s.rng.Float64()*(1-assistedClipboardMin),
		RapidTypingDetected:  rapid,
		MeanInterKeyMillis:   mean,
		KeystrokeSampleCount: simKeystrokeSamples,
	}
}

// SuspicionScore implements ProcessSignal.
func (s *SimulatedSource) SuspicionScore() float64 { return s.processScore.load() }

// Matches implements ProcessSignal.
func (s *SimulatedSource) Matches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.matches))
	copy(out, s.matches)
	return out
}

// Audio returns an AudioSignal view of the source.
func (s *SimulatedSource) Audio() AudioSignal { return (*simAudio)(s) }

// Behavior returns a BehaviorSignal view of the source.
func (s *SimulatedSource) Behavior() BehaviorSignal { return (*simBehavior)(s) }

// simAudio exposes the audio facet of a SimulatedSource.
type simAudio SimulatedSource

func (s *simAudio) Analyze() (AudioFeatures, bool) {
	src := (*SimulatedSource)(s)
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.audio, src.hasAudio
}

func (s *simAudio) SuspicionScore() float64 {
	return (*SimulatedSource)(s).audioScore.load()
}

// simBehavior exposes the behavior facet of a SimulatedSource.
type simBehavior SimulatedSource

func (s *simBehavior) ActivitySummary() ActivitySummary {
	src := (*SimulatedSource)(s)
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.activity
}

func (s *simBehavior) SuspicionScore() float64 {
	return (*SimulatedSource)(s).behaviorScore.load()
}
