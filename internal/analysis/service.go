package analysis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/apex/log"

	"github.com/codexvision/focusd/internal/domain"
	"github.com/codexvision/focusd/internal/ports"
)

// Mode selects which prompt is sent and which normalizer tier is
// expected to handle the reply. It is fixed at process start.
type Mode string

const (
	// ModeClassify requests a single "STATUS: reason" line.
	ModeClassify Mode = "classify"

	// ModeSignals requests the three-boolean JSON object under a strict
	// schema.
	ModeSignals Mode = "signals"

	// ModeState requests a {state, reason} JSON object.
	ModeState Mode = "state"

	// ModeDescribe requests a free-text scene description surfaced as a
	// SEEING verdict.
	ModeDescribe Mode = "describe"
)

// ServiceConfig carries the per-deployment analysis settings.
type ServiceConfig struct {
	Mode        Mode
	MaxTokens   int
	Temperature float64

	// Stream asks streaming-capable backends to stream tokens; the
	// gateway concatenates them before normalization.
	Stream bool

	// UseSchema enables constrained decoding on backends that support
	// it. Ignored in classify and describe modes.
	UseSchema bool

	// SchemaOption names the request option the active backend reads
	// its schema from ("response_schema" for chat-completions style
	// APIs, "format" for the native chat API).
	SchemaOption string
}

// Service runs the full analysis pipeline: gate admission, backend
// call, normalization, cache publication.
type Service struct {
	client  ports.VisionClient
	gate    *Gate
	norm    *Normalizer
	metrics ports.MetricsCollector

	mode    Mode
	prompt  string
	options map[string]any
}

// NewService wires the pipeline together. The prompt and request
// options are derived from the mode once; requests only vary in their
// image payload.
func NewService(client ports.VisionClient, gate *Gate, norm *Normalizer, metrics ports.MetricsCollector, cfg ServiceConfig) *Service {
	options := map[string]any{
		"max_tokens":  cfg.MaxTokens,
		"temperature": cfg.Temperature,
	}

	var prompt string
	switch cfg.Mode {
	case ModeSignals:
		prompt = SignalsPrompt
		options["system"] = SignalsSystemPrompt
		if cfg.UseSchema {
			options[cfg.SchemaOption] = json.RawMessage(SignalsSchema)
			options["schema_name"] = SignalsSchemaName
		}
	case ModeState:
		prompt = StatePrompt
		if cfg.UseSchema {
			options[cfg.SchemaOption] = json.RawMessage(StateSchema)
			options["schema_name"] = "focus_state"
		}
	case ModeDescribe:
		prompt = DescribePrompt
		options["system"] = DescribeSystemPrompt
	default:
		prompt = ClassifyPrompt
	}

	if cfg.Stream {
		options["stream"] = true
	}

	return &Service{
		client:  client,
		gate:    gate,
		norm:    norm,
		metrics: metrics,
		mode:    cfg.Mode,
		prompt:  prompt,
		options: options,
	}
}

// Analyze classifies one frame. It never returns an error: backend
// failures become ERROR verdicts and gate contention becomes a stale
// or BUSY verdict, so the handler always has a Verdict to serialize.
func (s *Service) Analyze(ctx context.Context, image string) domain.Verdict {
	decision, cached := s.gate.Admit()
	if decision != Proceed {
		s.countOutcome(decision.String())
		log.Debugf("inference in flight, serving %s verdict", decision)
		return cached
	}
	defer s.gate.Release()

	start := time.Now()
	reply, err := s.client.Describe(ctx, image, s.prompt, s.options)
	if err != nil {
		log.WithError(err).Error("backend call failed")
		verdict := domain.ErrorVerdict(err.Error())
		s.gate.Publish(verdict)
		s.countOutcome("error")
		return verdict
	}

	log.Debugf("raw backend output: %q", reply.Text)

	var verdict domain.Verdict
	if s.mode == ModeDescribe {
		verdict = s.norm.NormalizeDescription(reply.Text)
	} else {
		verdict = s.norm.Normalize(reply.Text)
	}
	verdict.Elapsed = domain.Seconds(reply.Elapsed.Seconds())

	s.gate.Publish(verdict)
	s.countOutcome("fresh")
	if s.metrics != nil {
		s.metrics.RecordLatency("analyze", time.Since(start), nil)
	}
	log.Infof("verdict %s/%s in %.2fs", verdict.Label, verdict.Reason, reply.Elapsed.Seconds())

	return verdict
}

// Last exposes the cached verdict for health reporting.
func (s *Service) Last() (domain.Verdict, bool) {
	return s.gate.Last()
}

func (s *Service) countOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordCounter("analysis_requests_total", 1, map[string]string{"outcome": outcome})
	}
}
