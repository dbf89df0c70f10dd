// Package translation is the server-side translate operation: translation
// memory, glossary, provider fan-out, cleanup and sanitizing.
package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/valpere/leaftran/internal/chunker"
	"github.com/valpere/leaftran/internal/markdown"
	"github.com/valpere/leaftran/internal/orchestrator"
	"github.com/valpere/leaftran/internal/postprocess"
	"github.com/valpere/leaftran/internal/render"
	"github.com/valpere/leaftran/internal/translator"
	"github.com/valpere/leaftran/internal/validator"
)

var (
	ErrEmptyText       = errors.New("text to translate is empty")
	ErrInvalidLanguage = errors.New("invalid language")
	ErrNoTranslation   = errors.New("no service produced a translation")
)

// LLM providers get this on top of the base prompt.
const promptInstructions = "Keep the paragraph and line breaks of the original. " +
	"Headings and lists may be written in Markdown."

// DefaultChunkSize keeps each provider request under the smallest request
// limit among the supported providers.
const DefaultChunkSize = 450

type Executor interface {
	Execute(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) *orchestrator.OrchestratorResult
}

type Memory interface {
	GetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error)
	SaveToMemory(ctx context.Context, sourceText, sourceLang, targetLang, finalText, serviceUsed string) error
}

type Glossary interface {
	GetGlossaryTerms(ctx context.Context, sourceLang, targetLang string) (map[string]string, error)
}

type Result struct {
	Text    string
	Service string
	Cached  bool
}

type Service struct {
	exec      Executor
	memory    Memory
	glossary  Glossary
	cfg       translator.ServiceConfig
	chunkSize int
	logger    *slog.Logger
}

type Option func(*Service)

// WithMemory enables translation memory lookups and writes.
func WithMemory(m Memory) Option {
	return func(s *Service) { s.memory = m }
}

func WithGlossary(g Glossary) Option {
	return func(s *Service) { s.glossary = g }
}

func WithServiceConfig(cfg translator.ServiceConfig) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithChunkSize sets the longest text, in runes, sent in one provider
// request. n <= 0 disables splitting.
func WithChunkSize(n int) Option {
	return func(s *Service) { s.chunkSize = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(exec Executor, opts ...Option) *Service {
	s := &Service{
		exec:      exec,
		chunkSize: DefaultChunkSize,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Translate returns sanitized markup for text. Memory and glossary failures
// are logged and skipped; only a failure of every provider is an error.
func (s *Service) Translate(ctx context.Context, sourceLang, targetLang, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyText
	}
	src, err := translator.NormalizeLang(sourceLang)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidLanguage, err)
	}
	tgt, err := translator.NormalizeLang(targetLang)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidLanguage, err)
	}
	if tgt == "" {
		return Result{}, fmt.Errorf("%w: target language required", ErrInvalidLanguage)
	}

	if s.memory != nil {
		cached, found, err := s.memory.GetCachedTranslation(ctx, text, src, tgt)
		switch {
		case err != nil:
			s.logger.Warn("translation memory lookup failed", "error", err)
		case found:
			s.logger.Debug("translation memory hit", "source", src, "target", tgt)
			return Result{Text: cached, Service: "memory", Cached: true}, nil
		}
	}

	req := translator.TranslateRequest{
		Text:         text,
		SourceLang:   src,
		TargetLang:   tgt,
		Instructions: promptInstructions,
	}
	if s.glossary != nil {
		terms, err := s.glossary.GetGlossaryTerms(ctx, src, tgt)
		if err != nil {
			s.logger.Warn("glossary lookup failed", "error", err)
		}
		req.GlossaryTerms = terms
	}

	pieces := chunker.Split(text, s.chunkSize)
	parts := make([]string, 0, len(pieces))
	var used *translator.ServiceResult
	for i, piece := range pieces {
		req.Text = piece
		req.PreviousContext = ""
		if i > 0 {
			req.PreviousContext = chunker.Context(pieces[i-1], chunker.DefaultContextWords)
		}
		best, err := s.translatePiece(ctx, req)
		if err != nil {
			return Result{}, err
		}
		parts = append(parts, postprocess.Clean(best.TranslatedText))
		used = best
	}
	if len(pieces) > 1 {
		s.logger.Debug("translated in pieces", "pieces", len(pieces))
	}

	final := Finish(strings.Join(parts, "\n\n"))
	if final == "" {
		return Result{}, fmt.Errorf("%w: %s returned empty text", ErrNoTranslation, used.ServiceName)
	}

	if s.memory != nil {
		if err := s.memory.SaveToMemory(ctx, text, src, tgt, final, used.ServiceName); err != nil {
			s.logger.Warn("translation memory save failed", "error", err)
		}
	}

	s.logger.Debug("translated paragraph",
		"service", used.ServiceName, "latency", used.Latency, "confidence", used.Confidence)
	return Result{Text: final, Service: used.ServiceName}, nil
}

// translatePiece runs every provider on req and picks the most confident
// result written in the target script. When every result fails the script
// check the most confident one is used anyway.
func (s *Service) translatePiece(ctx context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	outcome := s.exec.Execute(ctx, s.cfg, req)
	best, ok := outcome.Best()
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrNoTranslation, outcome.Err())
	}
	if outcome.Failed > 0 {
		s.logger.Info("some services failed", "succeeded", outcome.Succeeded, "error", outcome.Err())
	}

	var valid *translator.ServiceResult
	for i := range outcome.Results {
		r := &outcome.Results[i]
		if err := validator.Check(r.TranslatedText, req.TargetLang); err != nil {
			s.logger.Warn("discarding result", "service", r.ServiceName, "error", err)
			continue
		}
		if valid == nil || r.Confidence > valid.Confidence {
			valid = r
		}
	}
	if valid == nil {
		s.logger.Warn("no result in the target script, keeping the best one", "service", best.ServiceName)
		return best, nil
	}
	return valid, nil
}

// Finish turns raw provider output into display markup: LLM wrapping is
// stripped, markdown becomes HTML, line breaks in plain text become <br>, and
// the result is sanitized.
func Finish(raw string) string {
	text := markdown.Normalize(postprocess.Clean(raw))
	if !strings.Contains(text, "<") {
		text = strings.ReplaceAll(text, "\n", "<br>")
	}
	return render.Sanitize(text)
}
