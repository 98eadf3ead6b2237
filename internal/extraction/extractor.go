package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fleetdocs/backend/internal/llm"
	"github.com/fleetdocs/backend/internal/metrics"
	"github.com/fleetdocs/backend/pkg/logger"
	"github.com/fleetdocs/backend/pkg/utils"
)

// Completer is the raw LLM call.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// ResponseCache stores raw LLM output keyed by prompt hash.
type ResponseCache interface {
	GetExtraction(ctx context.Context, key string) (string, bool, error)
	SetExtraction(ctx context.Context, key, raw string) error
}

type AIConfig struct {
	Provider string
	Model    string
}

type Input struct {
	Summary  string
	Filename string
	AI       AIConfig
}

type Extractor struct {
	family    Family
	completer Completer
	cache     ResponseCache
}

type Option func(*Extractor)

func WithCache(c ResponseCache) Option {
	return func(e *Extractor) {
		e.cache = c
	}
}

func NewExtractor(family Family, completer Completer, opts ...Option) *Extractor {
	e := &Extractor{family: family, completer: completer}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extractor) Family() Family {
	return e.family
}

// Extract makes one LLM call and post-processes the answer. Every failure is
// reported through the outcome.
func (e *Extractor) Extract(ctx context.Context, in Input) Outcome {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.ExtractionDuration.WithLabelValues(string(e.family), status).Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(in.Summary) == "" {
		status = "empty_summary"
		return failed("no text could be extracted from the document")
	}

	system, user := BuildPrompts(e.family, in.Summary, in.Filename)
	key := utils.HashString(strings.Join([]string{string(e.family), in.AI.Provider, in.AI.Model, system, user}, "\x00"))

	raw, err := e.complete(ctx, key, system, user, in.AI)
	if err != nil {
		status = "llm_error"
		logger.Warn("LLM extraction call failed",
			zap.String("family", string(e.family)),
			zap.String("filename", in.Filename),
			zap.Error(err),
		)
		return failed("AI extraction failed, please enter the details manually")
	}

	out := e.Process(raw, in.Filename)
	if out.Failed() {
		status = "parse_error"
		logger.Warn("LLM extraction unusable",
			zap.String("family", string(e.family)),
			zap.String("filename", in.Filename),
			zap.String("reason", out.Reason),
		)
		return out
	}

	metrics.ConfidenceScore.WithLabelValues(string(e.family)).Observe(out.Result.ConfidenceScore)
	return out
}

// Process turns raw LLM output into an outcome. Identical input always
// produces identical derived fields.
func (e *Extractor) Process(raw, filename string) Outcome {
	obj, err := decodeObject(raw)
	if err != nil {
		return failed(fmt.Sprintf("AI response could not be parsed: %v", err))
	}

	if err := Validate(e.family, obj); err != nil {
		logger.Debug("LLM output failed schema validation, coercing",
			zap.String("family", string(e.family)),
			zap.Error(err),
		)
	}

	prof := e.family.profile()
	v := coerce(obj, prof.fields)
	if v.empty() {
		return failed("AI response contained no fields")
	}

	coerceDates(v, prof.dateFields)
	cleanFields(e.family, v)
	applied := ApplyRules(prof.rules, v, filename)

	for _, a := range applied {
		logger.Debug("Extraction rule applied",
			zap.String("family", string(e.family)),
			zap.String("field", a.Field),
			zap.String("source", a.Source),
		)
	}

	return succeeded(newResult(e.family, v))
}

func (e *Extractor) complete(ctx context.Context, key, system, user string, ai AIConfig) (string, error) {
	if e.cache != nil {
		raw, ok, err := e.cache.GetExtraction(ctx, key)
		if err != nil {
			logger.Warn("Extraction cache read failed", zap.Error(err))
		} else if ok {
			metrics.CacheHits.WithLabelValues("extraction").Inc()
			return raw, nil
		} else {
			metrics.CacheMisses.WithLabelValues("extraction").Inc()
		}
	}

	resp, err := e.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		Model:        ai.Model,
		JSONMode:     true,
	})
	if err != nil {
		return "", err
	}

	if e.cache != nil && strings.TrimSpace(resp.Content) != "" {
		if err := e.cache.SetExtraction(ctx, key, resp.Content); err != nil {
			logger.Warn("Extraction cache write failed", zap.Error(err))
		}
	}
	return resp.Content, nil
}
