package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const tokenParts = 4

// DownloadSigner mints and verifies download tokens for export job
// artifacts. A token binds the job ID, the artifact name and an expiry
// under an HMAC so download links can be handed out without auth state.
type DownloadSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewDownloadSigner returns a signer. A non-positive TTL defaults to a day.
func NewDownloadSigner(secret string, ttl time.Duration) *DownloadSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DownloadSigner{secret: []byte(secret), ttl: ttl}
}

// Generate mints a token for the job's artifact.
func (s *DownloadSigner) Generate(jobID, artifact string) (string, time.Time, error) {
	if jobID == "" || artifact == "" {
		return "", time.Time{}, fmt.Errorf("job id and artifact name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("download signing secret not configured")
	}

	expiresAt := time.Now().Add(s.ttl)
	parts := []string{
		base64.RawURLEncoding.EncodeToString([]byte(jobID)),
		base64.RawURLEncoding.EncodeToString([]byte(artifact)),
		strconv.FormatInt(expiresAt.Unix(), 10),
	}
	parts = append(parts, s.sign(parts))
	return strings.Join(parts, "."), expiresAt, nil
}

// Parse verifies a token and returns the job ID, artifact name and
// expiry. Cleanup paths pass allowExpired to resolve artifacts of tokens
// that have already lapsed.
func (s *DownloadSigner) Parse(token string, allowExpired bool) (jobID, artifact string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != tokenParts {
		return "", "", time.Time{}, fmt.Errorf("malformed download token")
	}
	if !hmac.Equal([]byte(s.sign(parts[:3])), []byte(parts[3])) {
		return "", "", time.Time{}, fmt.Errorf("download token signature mismatch")
	}

	rawJob, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode job id: %w", err)
	}
	rawArtifact, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode artifact name: %w", err)
	}
	expUnix, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode token expiry: %w", err)
	}

	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("download token expired")
	}
	return string(rawJob), string(rawArtifact), expiresAt, nil
}

func (s *DownloadSigner) sign(parts []string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(strings.Join(parts, "\n")))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
