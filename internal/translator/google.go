package translator

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService calls Cloud Translation v2. Credentials come from
// cfg.Credentials (service account file), cfg.APIKey, or the ambient
// application default credentials.
type GoogleService struct{}

func NewGoogleService() *GoogleService {
	return &GoogleService{}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	target, err := NormalizeLang(req.TargetLang)
	if err == nil && target == "" {
		err = errors.New("target language required")
	}
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	source, err := NormalizeLang(req.SourceLang)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	client, err := translate.NewClient(ctx, googleOptions(cfg)...)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create client: %v", err)
		return result, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	var opts *translate.Options
	if source != "" {
		opts = &translate.Options{Source: language.Make(source), Format: translate.Text}
	}
	translations, err := client.Translate(ctx, []string{req.Text}, language.Make(target), opts)
	if err != nil {
		result.Error = fmt.Sprintf("translation failed: %v", err)
		return result, fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) == 0 {
		result.Error = "no translation returned"
		return result, errors.New("no translation returned")
	}

	// v2 escapes entities even in text mode.
	result.TranslatedText = html.UnescapeString(translations[0].Text)
	result.Confidence = 1.0
	if opts == nil {
		result.Metadata = map[string]string{"detected_source": translations[0].Source.String()}
	}
	return result, nil
}

func googleOptions(cfg ServiceConfig) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	return opts
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	return nil
}
