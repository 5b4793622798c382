package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"flux-kontext-server/modules/common/config"
	"flux-kontext-server/modules/common/fetch"
	"flux-kontext-server/modules/common/llm"
	"flux-kontext-server/modules/common/redis"
	"flux-kontext-server/modules/common/storage"
	"flux-kontext-server/modules/diagnostics"
	"flux-kontext-server/modules/generate"
	"flux-kontext-server/modules/optimize"
	"flux-kontext-server/modules/submodule/falkontext"
	"flux-kontext-server/modules/upload"
)

// CORS 미들웨어
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 요청 로그 미들웨어
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("➡️  %s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// LLM (프롬프트 최적화 / 이미지 분석)
	llmClient, err := llm.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("❌ Failed to create LLM client: %v", err)
	}

	// 참조 이미지 다운로더 (+ Redis 캐시, 선택)
	var cache fetch.Cache
	if rdb := redis.Connect(cfg); rdb != nil {
		defer rdb.Close()
		cache = fetch.NewRedisCache(rdb)
	}
	fetcher := fetch.NewFetcher(&http.Client{}, cfg.DownloadTimeout, cache, cfg.ImageCacheTTL)

	// fal.ai FLUX.1 Kontext
	imageBackend := falkontext.NewService(falkontext.Config{
		Key:          cfg.FalKey,
		BaseURL:      cfg.FalBaseURL,
		QueueBaseURL: cfg.FalQueueBaseURL,
		Timeout:      cfg.GenerationTimeout,
	}, &http.Client{})

	optimizeHandler := optimize.NewHandler(optimize.NewService(llmClient, fetcher, cfg.LLMMaxTokens))
	generateHandler := generate.NewHandler(generate.NewService(imageBackend), generate.NewAspectResolver(fetcher))
	uploadHandler := upload.NewHandler(storage.NewSupabaseUploader(cfg), cfg.MaxUploadBytes())
	diagnosticsHandler := diagnostics.NewHandler(cfg, llmClient)

	r := mux.NewRouter()
	diagnosticsHandler.RegisterRoutes(r)
	optimizeHandler.RegisterRoutes(r)
	generateHandler.RegisterRoutes(r)
	uploadHandler.RegisterRoutes(r)

	handler := enableCORS(logRequests(r))

	log.Printf("🚀 FLUX.1 Kontext server starting on port %s", cfg.Port)
	log.Printf("🎨 Generate endpoint: POST /generate")
	log.Printf("✨ Optimize endpoint: POST /optimize-prompt")
	log.Printf("📤 Upload endpoint: POST /upload")
	log.Printf("🏥 Health check: http://localhost:%s/health", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatal("❌ Server failed to start:", err)
	}
}
