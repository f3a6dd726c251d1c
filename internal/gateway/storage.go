package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"doneby/internal/config"

	"github.com/google/uuid"
)

// UploadTicket tells a client where to PUT its bytes and which key to report
// back once the upload finishes.
type UploadTicket struct {
	UploadURL  string `json:"upload_url"`
	StorageKey string `json:"storage_key"`
}

// BlobStorage issues time-limited URLs for reading and writing stored objects.
type BlobStorage interface {
	Presign(storageKey string, expiresIn time.Duration) (string, error)
	PresignUpload(filename, contentType string) (*UploadTicket, error)
}

// HMACStorage signs object URLs with a shared secret, the scheme our storage
// proxy verifies. The signature covers method, key and expiry so a read URL
// cannot be replayed as a write.
type HMACStorage struct {
	baseURL    string
	bucket     string
	signingKey []byte
	now        func() time.Time
}

// NewHMACStorage builds a presigner from application config.
func NewHMACStorage(cfg *config.Config) *HMACStorage {
	return &HMACStorage{
		baseURL:    strings.TrimRight(cfg.StorageBaseURL, "/"),
		bucket:     cfg.StorageBucket,
		signingKey: []byte(cfg.StorageSigningKey),
		now:        time.Now,
	}
}

// Presign returns a time-limited GET URL for the given storage key.
func (s *HMACStorage) Presign(storageKey string, expiresIn time.Duration) (string, error) {
	key := NormalizeStorageKey(storageKey)
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}
	return s.signedURL("GET", key, expiresIn), nil
}

// PresignUpload returns a PUT URL plus the storage key the client must report
// back to the entry-update endpoint after uploading.
func (s *HMACStorage) PresignUpload(filename, contentType string) (*UploadTicket, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}

	now := s.now()
	key := fmt.Sprintf("uploads/%s/%s%s", now.Format("2006/01"), uuid.NewString(), ext)
	return &UploadTicket{
		UploadURL:  s.signedURL("PUT", key, 15*time.Minute),
		StorageKey: key,
	}, nil
}

func (s *HMACStorage) signedURL(method, key string, expiresIn time.Duration) string {
	expires := s.now().Add(expiresIn).Unix()
	mac := hmac.New(sha256.New, s.signingKey)
	fmt.Fprintf(mac, "%s\n%s/%s\n%d", method, s.bucket, key, expires)
	sig := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("%s/%s/%s?expires=%d&signature=%s", s.baseURL, s.bucket, key, expires, sig)
}

// NormalizeStorageKey accepts either a bare storage key or a full URL
// previously handed to a client and reduces it to the key. Unparseable input
// is returned trimmed, letting the presigner decide whether it is usable.
func NormalizeStorageKey(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.Contains(ref, "://") {
		parsed, err := url.Parse(ref)
		if err != nil {
			return ""
		}
		ref = parsed.Path
	}
	ref = strings.TrimLeft(ref, "/")
	// Strip a leading bucket segment when present: "bucket/uploads/..." ->
	// "uploads/...". Anchored to a segment boundary so a key segment that
	// merely ends in "uploads" is left alone.
	if !strings.HasPrefix(ref, "uploads/") {
		if idx := strings.Index(ref, "/uploads/"); idx >= 0 {
			ref = ref[idx+1:]
		}
	}
	return ref
}
