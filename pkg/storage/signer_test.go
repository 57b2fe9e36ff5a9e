package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDownloadSignerRoundTrip(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("job-1", "artifacts/job-1/timetable.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	jobID, artifact, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "job-1", jobID)
	require.Equal(t, "artifacts/job-1/timetable.csv", artifact)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestDownloadSignerExpired(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("job-1", "artifacts/job-1/exams.pdf")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	// Cleanup still needs to map expired tokens back to artifacts.
	jobID, artifact, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "job-1", jobID)
	require.Equal(t, "artifacts/job-1/exams.pdf", artifact)
}

func TestDownloadSignerRejectsTampering(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, _, err := signer.Generate("job-1", "artifacts/job-1/timetable.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 4)
	parts[1] = "c3RvbGVu"
	_, _, _, err = signer.Parse(strings.Join(parts, "."), false)
	require.Error(t, err)

	other := NewDownloadSigner("other-secret", time.Hour)
	_, _, _, err = other.Parse(token, false)
	require.Error(t, err)
}
