package pipeline

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/skypro1111/call-compliance-service/internal/acoustic"
	"github.com/skypro1111/call-compliance-service/internal/audio"
	"github.com/skypro1111/call-compliance-service/internal/clientcfg"
	"github.com/skypro1111/call-compliance-service/internal/metrics"
	"github.com/skypro1111/call-compliance-service/internal/policy"
	"github.com/skypro1111/call-compliance-service/internal/reasoning"
	"github.com/skypro1111/call-compliance-service/internal/report"
	"github.com/skypro1111/call-compliance-service/internal/temporal"
	"github.com/skypro1111/call-compliance-service/internal/transcription"
)

// ErrNotReady is returned when the policy store failed to initialize and the
// service cannot run compliance analyses.
var ErrNotReady = errors.New("policy store is not ready")

// Transcriber is the transcription boundary the pipeline depends on
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, audioDuration float64) (*transcription.Result, error)
}

// Pipeline wires the analysis stages together
type Pipeline struct {
	segmenter     *acoustic.Segmenter
	transcriber   Transcriber
	store         *policy.Store
	retriever     *policy.Retriever
	orchestrator  *reasoning.Orchestrator
	assembler     *report.Assembler
	defaultConfig clientcfg.Config
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// New creates a pipeline over already-constructed stages
func New(
	segmenter *acoustic.Segmenter,
	transcriber Transcriber,
	store *policy.Store,
	retriever *policy.Retriever,
	orchestrator *reasoning.Orchestrator,
	assembler *report.Assembler,
	defaultConfig clientcfg.Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*Pipeline, error) {
	if segmenter == nil || transcriber == nil || store == nil ||
		retriever == nil || orchestrator == nil || assembler == nil {
		return nil, fmt.Errorf("all pipeline stages are required")
	}

	if m == nil {
		return nil, fmt.Errorf("metrics cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		segmenter:     segmenter,
		transcriber:   transcriber,
		store:         store,
		retriever:     retriever,
		orchestrator:  orchestrator,
		assembler:     assembler,
		defaultConfig: defaultConfig,
		metrics:       m,
		logger:        logger,
	}, nil
}

// NewRequestID returns a fresh request identifier in the REQ-XXXXXX-MA form
func NewRequestID() string {
	id := uuid.New()
	return "REQ-" + strings.ToUpper(hex.EncodeToString(id[:3])) + "-MA"
}

// Analyze runs the full analysis for one call recording. The audio file at
// audioPath must outlive the call; the caller owns its cleanup. An empty
// callTimestampUTC means the call is treated as happening now.
func (p *Pipeline) Analyze(
	ctx context.Context,
	audioPath string,
	overrides *clientcfg.Overrides,
	callTimestampUTC string,
) (*report.AuditDocument, error) {
	if !p.store.Ready() {
		return nil, fmt.Errorf("%w: state %s", ErrNotReady, p.store.State())
	}

	requestID := NewRequestID()
	startedAt := time.Now()
	p.metrics.RecordAnalysisStarted()

	if callTimestampUTC == "" {
		callTimestampUTC = time.Now().UTC().Format(time.RFC3339)
	}

	merged := clientcfg.Merge(p.defaultConfig, overrides)

	logger := p.logger.With(slog.String("request_id", requestID))
	logger.Info("analysis started",
		slog.String("audio_path", audioPath),
		slog.String("policy_set", merged.ActivePolicySet))

	audioDuration := audio.FileDuration(audioPath)

	// Acoustic analysis and transcription are independent of each other
	var (
		segments          []acoustic.Segment
		transcriptionRes  *transcription.Result
		transcriptionTime time.Duration
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		segments = p.segmenter.AnalyzeFile(audioPath)
		p.metrics.RecordAcousticSegments(len(segments))
		if audioDuration == 0 {
			p.metrics.RecordAcousticFallback()
		}
		return nil
	})

	g.Go(func() error {
		p.metrics.RecordTranscriptionRequest()
		transcriptionStart := time.Now()

		result, err := p.transcriber.Transcribe(gctx, audioPath, audioDuration)
		transcriptionTime = time.Since(transcriptionStart)

		if err != nil {
			p.metrics.RecordTranscriptionFailure(transcriptionTime.Seconds())
			logger.Warn("transcription failed, using fallback transcript",
				slog.String("error", err.Error()))
			transcriptionRes = transcription.Fallback()
			return nil
		}

		p.metrics.RecordTranscriptionSuccess(transcriptionTime.Seconds())
		transcriptionRes = result
		return nil
	})

	if err := g.Wait(); err != nil {
		p.metrics.RecordAnalysisFailed()
		return nil, fmt.Errorf("analysis stages failed: %w", err)
	}

	logger.Info("audio stages complete",
		slog.Int("segments", len(segments)),
		slog.Int("turns", len(transcriptionRes.Turns)),
		slog.Duration("transcription_time", transcriptionTime))

	verdict := temporal.CheckCallTime(callTimestampUTC)
	if verdict.Violation {
		logger.Warn("operating hours violation detected",
			slog.String("ist_time", verdict.LocalTime))
	}

	// The reasoner always sees the full corpus; retrieval adds ranked
	// ephemeral client clauses on top.
	corpus := p.store.AllClauses()
	retrieved := p.retriever.Retrieve(ctx, transcriptionRes.Turns, &merged)
	clauses := policy.MergeWithCorpus(corpus, retrieved)
	p.metrics.RecordClausesRetrieved(len(clauses))

	reasoningStart := time.Now()
	judgment, fromModel := p.orchestrator.Analyze(ctx, reasoning.Input{
		Turns:            transcriptionRes.Turns,
		Segments:         segments,
		Clauses:          clauses,
		ClientConfig:     &merged,
		CallTimestampUTC: callTimestampUTC,
		TimeVerdict:      verdict,
	})
	p.metrics.RecordReasoningDuration(time.Since(reasoningStart).Seconds())
	if !fromModel {
		p.metrics.RecordReasoningFallback()
	}

	doc := p.assembler.Assemble(report.Inputs{
		RequestID:        requestID,
		CallTimestampUTC: callTimestampUTC,
		StartedAt:        startedAt,
		Transcription:    transcriptionRes,
		Segments:         segments,
		Judgment:         judgment,
		TimeVerdict:      verdict,
		ClientConfig:     &merged,
	})

	p.metrics.RecordAnalysisCompleted(
		time.Since(startedAt).Seconds(),
		len(doc.ComplianceAudit.PolicyViolations))

	logger.Info("analysis complete",
		slog.Int("violations", len(doc.ComplianceAudit.PolicyViolations)),
		slog.Bool("within_policy", doc.ComplianceAudit.IsWithinPolicy),
		slog.Duration("elapsed", time.Since(startedAt)))

	return doc, nil
}

// DefaultConfig returns the service-wide default client configuration
func (p *Pipeline) DefaultConfig() clientcfg.Config {
	return p.defaultConfig
}

// StoreState reports the policy store's lifecycle state
func (p *Pipeline) StoreState() policy.State {
	return p.store.State()
}

// Ready reports whether the pipeline can accept analyses
func (p *Pipeline) Ready() bool {
	return p.store.Ready()
}
