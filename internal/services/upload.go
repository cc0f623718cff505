package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pollup/internal/apperr"
)

// UploadService issues short-lived upload authorizations for the object
// storage collaborator. The service never touches the byte stream: it
// hands out a signed URL bound to a key, content type and expiry, keeps
// the grant in Redis until it expires, and later records the resulting
// public URL on the owning entity.
type UploadService struct {
	rdb     *redis.Client
	secret  []byte
	baseURL string
	ttl     time.Duration
}

// UploadGrant is what the client forwards to the storage host.
type UploadGrant struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	PublicURL   string    `json:"public_url"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Signature   string    `json:"signature"`
}

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
}

func NewUploadService(rdb *redis.Client, secret, baseURL string, ttl time.Duration) *UploadService {
	return &UploadService{
		rdb:     rdb,
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
	}
}

// IssueGrant creates a grant for one upload of the given content type.
func (s *UploadService) IssueGrant(ctx context.Context, contentType string) (*UploadGrant, error) {
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return nil, apperr.Validation("unsupported content type %q", contentType)
	}

	key := uuid.NewString() + ext
	expiresAt := time.Now().Add(s.ttl)
	sig := s.sign(key, contentType, expiresAt)

	grant := &UploadGrant{
		Key:         key,
		URL:         fmt.Sprintf("%s/%s?sig=%s&exp=%d", s.baseURL, key, sig, expiresAt.Unix()),
		PublicURL:   s.PublicURL(key),
		ContentType: contentType,
		ExpiresAt:   expiresAt,
		Signature:   sig,
	}

	if err := s.rdb.Set(ctx, grantKey(key), contentType, s.ttl).Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, err, "storing upload grant")
	}
	return grant, nil
}

// VerifyGrant checks the signature and that the grant is still live.
// The storage host calls this before accepting bytes.
func (s *UploadService) VerifyGrant(ctx context.Context, key, contentType, sig string, expiresAt time.Time) error {
	if time.Now().After(expiresAt) {
		return apperr.Validation("upload grant expired")
	}
	want := s.sign(key, contentType, expiresAt)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return apperr.Validation("upload grant signature mismatch")
	}

	stored, err := s.rdb.Get(ctx, grantKey(key)).Result()
	if err == redis.Nil {
		return apperr.Validation("upload grant unknown or expired")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindUpstreamUnavailable, err, "checking upload grant")
	}
	if stored != contentType {
		return apperr.Validation("upload grant content type mismatch")
	}
	return nil
}

// ConsumeGrant removes the grant once the storage host took the bytes,
// so a grant authorizes at most one upload.
func (s *UploadService) ConsumeGrant(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, grantKey(key)).Err(); err != nil {
		return apperr.Wrap(apperr.KindUpstreamUnavailable, err, "consuming upload grant")
	}
	return nil
}

// PublicURL is the stable reference recorded on the User or Post.
func (s *UploadService) PublicURL(key string) string {
	return s.baseURL + "/" + path.Clean(key)
}

func (s *UploadService) sign(key, contentType string, expiresAt time.Time) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%d", key, contentType, expiresAt.Unix())
	return hex.EncodeToString(mac.Sum(nil))
}

func grantKey(key string) string {
	return "upload:grant:" + key
}
