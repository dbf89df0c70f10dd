/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/valpere/leaftran/internal/config"
	"github.com/valpere/leaftran/internal/orchestrator"
	"github.com/valpere/leaftran/internal/server"
	"github.com/valpere/leaftran/internal/store"
	"github.com/valpere/leaftran/internal/store/redis"
	"github.com/valpere/leaftran/internal/translation"
	"github.com/valpere/leaftran/internal/translator"
)

// buildServices constructs the translation services named in the config.
// Unknown names are logged and skipped.
func buildServices(tc config.TranslateConfig) ([]translator.TranslationService, error) {
	var list []translator.TranslationService

	for _, name := range tc.Services {
		switch name {
		case "google":
			list = append(list, translator.NewGoogleService())
		case "mymemory":
			list = append(list, translator.NewMyMemoryService(tc.MyMemory.Email))
		case "ollama":
			svc := translator.NewOllamaTranslator(tc.Ollama.BaseURL, tc.Ollama.Models)
			logger.Debug("ollama models", "models", svc.Models())
			list = append(list, svc)
		case "openrouter":
			svc := translator.NewOpenRouterService(tc.OpenRouter.APIKey, tc.OpenRouter.BaseURL, tc.OpenRouter.Models)
			logger.Debug("openrouter models", "models", svc.Models())
			list = append(list, svc)
		default:
			logger.Warn("unknown translation service, skipping", "service", name)
		}
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("no valid services configured")
	}
	return list, nil
}

// buildTranslation wires providers, memory and glossary into the translate
// pipeline. db may be nil, which disables memory and glossary.
func buildTranslation(tc config.TranslateConfig, db *store.Store) (*translation.Service, error) {
	services, err := buildServices(tc)
	if err != nil {
		return nil, err
	}
	orch := orchestrator.New(services, orchestrator.OrchestratorConfig{
		Timeout:     tc.Timeout,
		MaxAttempts: tc.MaxAttempts,
		Logger:      logger,
	})

	opts := []translation.Option{
		translation.WithLogger(logger),
		translation.WithChunkSize(tc.ChunkSize),
		translation.WithServiceConfig(translator.ServiceConfig{
			Credentials: tc.Google.Credentials,
			APIKey:      tc.Google.APIKey,
		}),
	}
	if db != nil {
		opts = append(opts, translation.WithGlossary(db))
		if tc.Memory {
			opts = append(opts, translation.WithMemory(db))
		}
	}
	logger.Info("translation services ready", "services", orch.Services())
	return translation.New(orch, opts...), nil
}

func openStore() (*store.Store, error) {
	db, err := store.New(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

type closingRepo interface {
	server.LeafletRepository
	Close() error
}

// openLeafletRepo returns the configured leaflet storage. The sqlite driver
// shares db.
func openLeafletRepo(sc config.StorageConfig, db *store.Store) closingRepo {
	if sc.Driver == config.DriverRedis {
		logger.Info("storing leaflets in redis", "addr", sc.RedisAddr)
		return redis.New(sc.RedisAddr, sc.RedisPassword, sc.RedisDB)
	}
	return nopCloser{db}
}

// nopCloser keeps the shared sqlite store open until its owner closes it.
type nopCloser struct{ *store.Store }

func (nopCloser) Close() error { return nil }
