package provisioning

import (
	"crypto/sha1" //nolint:gosec // cache key identity, not a security boundary
	"encoding/hex"
	"fmt"
	"net/url"
)

// CacheKey computes the pure, stable cache key for a (contentID,
// checksum) pair: lowercase hex SHA-1 of "contentID:checksum".
func CacheKey(contentID, checksum string) string {
	sum := sha1.Sum([]byte(contentID + ":" + checksum)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// ManifestPath is the fixed convention manifests/{contentId}/master.m3u8.
func ManifestPath(contentID string) string {
	return fmt.Sprintf("manifests/%s/master.m3u8", contentID)
}

// ResolvePlaybackURL resolves manifestPath against cdnBaseURL per
// RFC 3986 reference resolution.
func ResolvePlaybackURL(cdnBaseURL, manifestPath string) (string, error) {
	base, err := url.Parse(cdnBaseURL)
	if err != nil {
		return "", fmt.Errorf("parse cdn base url: %w", err)
	}
	ref, err := url.Parse(manifestPath)
	if err != nil {
		return "", fmt.Errorf("parse manifest path: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}
