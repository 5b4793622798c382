package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG 디코더 등록
	_ "image/png"  // PNG 디코더 등록
	"log"
	"math"
	"net/http"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"
)

// AspectRatios - FLUX Kontext 가 지원하는 aspect ratio (가로 → 세로 순)
var AspectRatios = []string{"21:9", "16:9", "4:3", "3:2", "1:1", "2:3", "3:4", "9:16", "9:21"}

var aspectRatioValues = map[string]float64{
	"21:9": 21.0 / 9.0,
	"16:9": 16.0 / 9.0,
	"4:3":  4.0 / 3.0,
	"3:2":  3.0 / 2.0,
	"1:1":  1.0,
	"2:3":  2.0 / 3.0,
	"3:4":  3.0 / 4.0,
	"9:16": 9.0 / 16.0,
	"9:21": 9.0 / 21.0,
}

// IsValidAspectRatio - 지원 aspect ratio 인지 확인
func IsValidAspectRatio(ratio string) bool {
	_, ok := aspectRatioValues[ratio]
	return ok
}

// ConvertImageToBase64 - 이미지 바이너리를 base64로 변환
func ConvertImageToBase64(imageData []byte) string {
	base64Str := base64.StdEncoding.EncodeToString(imageData)
	log.Printf("🔄 Image converted to base64: %d chars (preview: %s...)",
		len(base64Str),
		base64Str[:min(50, len(base64Str))])
	return base64Str
}

// DetectImageFormat - 바이트에서 포맷 추정 (jpeg/png/webp, 모르면 jpeg)
func DetectImageFormat(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "jpeg"
	}
}

// ImageSize - 이미지 픽셀 크기 (WebP 는 go-webp 로 디코드)
func ImageSize(data []byte) (int, int, error) {
	if DetectImageFormat(data) == "webp" {
		img, err := webp.Decode(bytes.NewReader(data), &decoder.Options{})
		if err != nil {
			return 0, 0, fmt.Errorf("failed to decode WebP: %w", err)
		}
		b := img.Bounds()
		return b.Dx(), b.Dy(), nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// DetectAspectRatio - 이미지 크기에 가장 가까운 지원 aspect ratio
func DetectAspectRatio(data []byte) (string, error) {
	w, h, err := ImageSize(data)
	if err != nil {
		return "", err
	}
	ratio := NearestAspectRatio(w, h)
	log.Printf("📐 Detected image size %dx%d → aspect ratio %s", w, h, ratio)
	return ratio, nil
}

// NearestAspectRatio - log 비율 거리 기준 최근접. 크기가 0 이하면 1:1
func NearestAspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return "1:1"
	}
	target := math.Log(float64(width) / float64(height))

	best := "1:1"
	bestDist := math.Inf(1)
	for _, name := range AspectRatios {
		dist := math.Abs(math.Log(aspectRatioValues[name]) - target)
		if dist < bestDist {
			best = name
			bestDist = dist
		}
	}
	return best
}
