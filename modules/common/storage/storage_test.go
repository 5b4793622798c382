package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flux-kontext-server/modules/common/apperr"
	"flux-kontext-server/modules/common/config"
)

type fakeBucket struct {
	bucket      string
	path        string
	data        []byte
	contentType string
	err         error
}

func (f *fakeBucket) UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error) {
	if f.err != nil {
		return storage_go.FileUploadResponse{}, f.err
	}
	f.bucket = bucketId
	f.path = relativePath
	f.data, _ = io.ReadAll(data)
	if len(fileOptions) > 0 && fileOptions[0].ContentType != nil {
		f.contentType = *fileOptions[0].ContentType
	}
	return storage_go.FileUploadResponse{}, nil
}

func (f *fakeBucket) GetPublicUrl(bucketId string, filePath string, urlOptions ...storage_go.UrlOptions) storage_go.SignedUrlResponse {
	return storage_go.SignedUrlResponse{SignedURL: "https://cdn.example.com/" + bucketId + "/" + filePath}
}

func TestUpload(t *testing.T) {
	bucket := &fakeBucket{}
	u := &SupabaseUploader{
		storage: bucket,
		bucket:  "uploads",
		now:     func() time.Time { return time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC) },
	}

	url, err := u.Upload(context.Background(), "cat.PNG", "image/png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "uploads", bucket.bucket)
	assert.Regexp(t, regexp.MustCompile(`^uploads/20250309/[0-9a-f-]{36}\.png$`), bucket.path)
	assert.Equal(t, []byte("png-bytes"), bucket.data)
	assert.Equal(t, "image/png", bucket.contentType)
	assert.Equal(t, "https://cdn.example.com/uploads/"+bucket.path, url)
}

func TestUploadFailure(t *testing.T) {
	u := &SupabaseUploader{storage: &fakeBucket{err: errors.New("bucket not found")}, bucket: "uploads", now: time.Now}
	_, err := u.Upload(context.Background(), "a.jpg", "image/jpeg", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestUploadNotConfigured(t *testing.T) {
	u := NewSupabaseUploader(&config.Config{SupabaseStorageBucket: "uploads"})
	_, err := u.Upload(context.Background(), "a.jpg", "image/jpeg", []byte("x"))
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpg", extensionFor("photo.jpeg", "image/jpeg"))
	assert.Equal(t, ".webp", extensionFor("x", "image/webp"))
	assert.Equal(t, ".bmp", extensionFor("x.BMP", "application/octet-stream"))
	assert.Equal(t, "", extensionFor("noext", ""))
}
