package provisioning_test

import (
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/channelflow/internal/provisioning"
)

func TestCacheKey_Purity(t *testing.T) {
	contentID := "c1"
	checksum := "s1"

	want := func() string {
		sum := sha1.Sum([]byte(contentID + ":" + checksum)) //nolint:gosec
		return hex.EncodeToString(sum[:])
	}()

	got1 := provisioning.CacheKey(contentID, checksum)
	got2 := provisioning.CacheKey(contentID, checksum)

	assert.Equal(t, want, got1)
	assert.Equal(t, got1, got2, "cache key must be stable across calls")
}

func TestCacheKey_ChangesWithChecksum(t *testing.T) {
	k1 := provisioning.CacheKey("c1", "s1")
	k2 := provisioning.CacheKey("c1", "s2")
	assert.NotEqual(t, k1, k2)
}

func TestManifestPath(t *testing.T) {
	assert.Equal(t, "manifests/c1/master.m3u8", provisioning.ManifestPath("c1"))
}

func TestResolvePlaybackURL(t *testing.T) {
	got, err := provisioning.ResolvePlaybackURL("https://cdn.example.com/", "manifests/c1/master.m3u8")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/manifests/c1/master.m3u8", got)
}
