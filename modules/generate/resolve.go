package generate

import (
	"context"
	"log"
	"strings"

	"flux-kontext-server/modules/common/fetch"
	"flux-kontext-server/modules/common/utils"
	"flux-kontext-server/modules/submodule/falkontext"
)

const DefaultAspectRatio = "1:1"

// ImageFetcher - 참조 이미지 다운로더
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Image, error)
}

// AspectResolver - aspectRatio ""/"auto" 를 구체 비율로 해석
type AspectResolver struct {
	fetcher ImageFetcher
}

func NewAspectResolver(fetcher ImageFetcher) *AspectResolver {
	return &AspectResolver{fetcher: fetcher}
}

// Resolve - 첫 번째 참조 이미지의 픽셀 크기로 비율 결정, 없거나 실패하면 1:1
func (a *AspectResolver) Resolve(ctx context.Context, req *GenerationRequest) {
	ratio := strings.TrimSpace(req.AspectRatio)
	if ratio != "" && ratio != "auto" {
		return
	}

	model, known := falkontext.LookupModel(strings.TrimSpace(req.Model))
	switch {
	case known && model.Family == falkontext.FamilyDev:
		// kontext-dev 는 resolution_mode 로 처리
		req.AspectRatio = ""
		return
	case !known || model.Family == falkontext.FamilyTextToImage:
		// 참조 이미지를 쓰지 않는 모델. 모르는 모델은 BuildInput 에서 거절
		req.AspectRatio = DefaultAspectRatio
		return
	}

	ref := firstReference(req)
	if ref == "" || a == nil || a.fetcher == nil {
		req.AspectRatio = DefaultAspectRatio
		return
	}

	img, err := a.fetcher.Fetch(ctx, ref)
	if err != nil {
		log.Printf("⚠️ [Generate] Aspect ratio detection failed, using %s: %v", DefaultAspectRatio, err)
		req.AspectRatio = DefaultAspectRatio
		return
	}
	detected, err := utils.DetectAspectRatio(img.Data)
	if err != nil {
		log.Printf("⚠️ [Generate] Could not decode reference image, using %s: %v", DefaultAspectRatio, err)
		req.AspectRatio = DefaultAspectRatio
		return
	}

	log.Printf("📐 [Generate] Detected aspect ratio %s from reference image", detected)
	req.AspectRatio = detected
}

func firstReference(req *GenerationRequest) string {
	for _, u := range req.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			return u
		}
	}
	return strings.TrimSpace(req.ImageURL)
}
