package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"flux-kontext-server/modules/common/apperr"
	"flux-kontext-server/modules/common/utils"
)

// MaxImageBytes - 참조 이미지 최대 크기
const MaxImageBytes = 20 << 20

// Image - 다운로드된 참조 이미지
type Image struct {
	URL         string
	Data        []byte
	ContentType string
	Format      string // jpeg, png, webp
	Cached      bool
}

// Base64 - LLM data URI 용 base64
func (i *Image) Base64() string {
	return utils.ConvertImageToBase64(i.Data)
}

// Cache - 참조 이미지 바이트 캐시
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Fetcher - 참조 이미지 다운로더
type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	cache      Cache
	ttl        time.Duration
}

// NewFetcher - cache 는 nil 가능
func NewFetcher(httpClient *http.Client, timeout time.Duration, cache Cache, ttl time.Duration) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Fetcher{
		httpClient: httpClient,
		timeout:    timeout,
		cache:      cache,
		ttl:        ttl,
	}
}

// CacheKey - refimg:<sha256(url)>
func CacheKey(imageURL string) string {
	sum := sha256.Sum256([]byte(imageURL))
	return "refimg:" + hex.EncodeToString(sum[:])
}

// Fetch - 이미지 다운로드. 실패는 모두 download 에러
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) (*Image, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, apperr.New(apperr.KindDownload, fmt.Sprintf("invalid image URL: %s", imageURL))
	}

	key := CacheKey(imageURL)
	if f.cache != nil {
		data, ok, err := f.cache.Get(ctx, key)
		if err != nil {
			log.Printf("⚠️ [Fetch] Cache read failed, downloading: %v", err)
		} else if ok && len(data) > 0 {
			log.Printf("📦 [Fetch] Cache hit: %s (%d bytes)", imageURL, len(data))
			return newImage(imageURL, data, true), nil
		}
	}

	data, err := f.download(ctx, imageURL)
	if err != nil {
		log.Printf("❌ [Fetch] Download failed: %v", err)
		return nil, err
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, data, f.ttl); err != nil {
			log.Printf("⚠️ [Fetch] Cache write failed: %v", err)
		}
	}

	log.Printf("✅ [Fetch] Downloaded %s (%d bytes)", imageURL, len(data))
	return newImage(imageURL, data, false), nil
}

func (f *Fetcher) download(ctx context.Context, imageURL string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDownload, "failed to build image request", err)
	}
	req.Header.Set("User-Agent", "flux-kontext-server/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDownload, fmt.Sprintf("failed to download image %s", imageURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.New(apperr.KindDownload, fmt.Sprintf("failed to download image %s: status %d", imageURL, resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDownload, fmt.Sprintf("failed to read image %s", imageURL), err)
	}
	if len(data) > MaxImageBytes {
		return nil, apperr.New(apperr.KindDownload, fmt.Sprintf("image %s exceeds %dMB", imageURL, MaxImageBytes>>20))
	}
	if len(data) == 0 {
		return nil, apperr.New(apperr.KindDownload, fmt.Sprintf("image %s is empty", imageURL))
	}
	return data, nil
}

func newImage(imageURL string, data []byte, cached bool) *Image {
	return &Image{
		URL:         imageURL,
		Data:        data,
		ContentType: http.DetectContentType(data),
		Format:      utils.DetectImageFormat(data),
		Cached:      cached,
	}
}
