package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	LLMProviderOpenAI = "openai"
	LLMProviderGenAI  = "genai"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Server
	Port string

	// LLM
	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
	LLMModel      string
	LLMMaxTokens  int

	// fal.ai (FLUX.1 Kontext)
	FalKey          string
	FalBaseURL      string
	FalQueueBaseURL string

	// Supabase
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseStorageBucket string

	// Redis (참조 이미지 캐시, REDIS_HOST 없으면 비활성)
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Timeouts / limits
	ImageCacheTTL     time.Duration
	DownloadTimeout   time.Duration
	LLMTimeout        time.Duration
	GenerationTimeout time.Duration
	MaxUploadMB       int
}

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	cfg := FromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   LLM: %s / %s (configured: %v)", cfg.LLMProvider, cfg.LLMModel, cfg.LLMConfigured())
	log.Printf("   fal.ai: %s (key: %v)", cfg.FalBaseURL, cfg.FalKey != "")
	log.Printf("   Supabase: %s (bucket: %s)", cfg.SupabaseURL, cfg.SupabaseStorageBucket)
	if cfg.CacheEnabled() {
		log.Printf("   Redis: %s (TLS: %v, TTL: %s)", cfg.GetRedisAddr(), cfg.RedisUseTLS, cfg.ImageCacheTTL)
	} else {
		log.Println("   Redis: disabled")
	}

	return cfg, nil
}

// FromEnv - .env 로드 없이 현재 환경변수만으로 Config 구성
func FromEnv() *Config {
	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// LLM
		LLMProvider:   getEnv("LLM_PROVIDER", LLMProviderOpenAI),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		LLMModel:      getEnv("LLM_MODEL", "gemini-2.5-flash"),
		LLMMaxTokens:  getEnvInt("LLM_MAX_TOKENS", 0),

		// fal.ai
		FalKey:          getEnv("FAL_KEY", ""),
		FalBaseURL:      getEnv("FAL_BASE_URL", "https://fal.run"),
		FalQueueBaseURL: getEnv("FAL_QUEUE_BASE_URL", "https://queue.fal.run"),

		// Supabase
		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "uploads"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   getEnvBool("REDIS_USE_TLS", false),

		// Timeouts / limits
		ImageCacheTTL:     getEnvSeconds("IMAGE_CACHE_TTL_SECONDS", 600),
		DownloadTimeout:   getEnvSeconds("DOWNLOAD_TIMEOUT_SECONDS", 10),
		LLMTimeout:        getEnvSeconds("LLM_TIMEOUT_SECONDS", 30),
		GenerationTimeout: getEnvSeconds("GENERATION_TIMEOUT_SECONDS", 60),
		MaxUploadMB:       getEnvInt("MAX_UPLOAD_MB", 10),
	}
}

// Validate - 값 범위 검증 (자격증명은 호출 시점에 확인)
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case LLMProviderOpenAI, LLMProviderGenAI:
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", LLMProviderOpenAI, LLMProviderGenAI, c.LLMProvider)
	}
	if c.LLMMaxTokens < 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must not be negative")
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("DOWNLOAD_TIMEOUT_SECONDS must be positive")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT_SECONDS must be positive")
	}
	if c.ImageCacheTTL <= 0 {
		return fmt.Errorf("IMAGE_CACHE_TTL_SECONDS must be positive")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// LLMAPIKey - 선택된 provider 의 API 키
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == LLMProviderGenAI {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// LLMConfigured - LLM 자격증명 존재 여부
func (c *Config) LLMConfigured() bool {
	return c.LLMAPIKey() != ""
}

// StorageConfigured - Supabase 업로드 가능 여부
func (c *Config) StorageConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

// CacheEnabled - Redis 캐시 사용 여부
func (c *Config) CacheEnabled() bool {
	return c.RedisHost != ""
}

// MaxUploadBytes - 업로드 최대 크기 (bytes)
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("⚠️  %s is not an integer, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		log.Printf("⚠️  %s is not a boolean, using default %v", key, defaultValue)
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}
