package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"

	"flux-kontext-server/modules/common/apperr"
	"flux-kontext-server/modules/common/config"
)

// Uploader - 파일을 업로드하고 public URL 을 반환
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// bucketAPI - supabase storage-go 클라이언트 중 사용하는 부분
type bucketAPI interface {
	UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	GetPublicUrl(bucketId string, filePath string, urlOptions ...storage_go.UrlOptions) storage_go.SignedUrlResponse
}

// SupabaseUploader - Supabase Storage 업로더
type SupabaseUploader struct {
	storage bucketAPI
	bucket  string
	now     func() time.Time
}

// NewSupabaseUploader - Supabase 설정이 없으면 Upload 시 configuration 에러
func NewSupabaseUploader(cfg *config.Config) *SupabaseUploader {
	u := &SupabaseUploader{
		bucket: cfg.SupabaseStorageBucket,
		now:    time.Now,
	}
	if !cfg.StorageConfigured() {
		log.Println("⚠️ [Storage] SUPABASE_URL / SUPABASE_SERVICE_KEY not configured")
		return u
	}

	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ [Storage] Failed to create Supabase client: %v", err)
		return u
	}
	u.storage = client.Storage
	log.Printf("✅ [Storage] Supabase storage ready (bucket: %s)", u.bucket)
	return u
}

// ObjectPath - uploads/<yyyymmdd>/<uuid>.<ext>
func ObjectPath(now time.Time, filename, contentType string) string {
	return fmt.Sprintf("uploads/%s/%s%s", now.UTC().Format("20060102"), uuid.NewString(), extensionFor(filename, contentType))
}

// Upload - 업로드 후 public URL 반환
func (u *SupabaseUploader) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if u.storage == nil {
		return "", apperr.Configuration("storage is not configured, set SUPABASE_URL and SUPABASE_SERVICE_KEY")
	}
	if err := ctx.Err(); err != nil {
		return "", apperr.FromTransport("upload cancelled", err)
	}

	objectPath := ObjectPath(u.now(), filename, contentType)
	log.Printf("📤 [Storage] Uploading %s (%d bytes, %s) → %s/%s", filename, len(data), contentType, u.bucket, objectPath)

	upsert := false
	_, err := u.storage.UploadFile(u.bucket, objectPath, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		log.Printf("❌ [Storage] Upload failed: %v", err)
		return "", apperr.Wrap(apperr.KindInternal, "failed to upload file to storage", err)
	}

	publicURL := u.storage.GetPublicUrl(u.bucket, objectPath).SignedURL
	log.Printf("✅ [Storage] Uploaded: %s", publicURL)
	return publicURL, nil
}

func extensionFor(filename, contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		return ext
	}
	return ""
}
