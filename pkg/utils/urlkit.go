// Package utils provides utility functions for the clipgate service.
// This file contains request-key classification used to pick format ladders
// and provider options.
package utils

import (
	"net/url"
	"strings"

	"github.com/clipgate/clipgate/pkg/constants"
)

// host extracts the lowercased hostname of a raw URL, empty on parse failure.
func host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// path extracts the lowercased path of a raw URL, empty on parse failure.
func path(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Path)
}

// hostMatches reports whether h equals domain or is a subdomain of it.
func hostMatches(h, domain string) bool {
	return h == domain || strings.HasSuffix(h, "."+domain)
}

// IsYouTubeShorts reports whether the URL points at a YouTube Shorts video.
func IsYouTubeShorts(rawURL string) bool {
	h := host(rawURL)
	if !hostMatches(h, "youtube.com") && !hostMatches(h, "youtu.be") {
		return false
	}
	return strings.HasPrefix(path(rawURL), "/shorts/")
}

// IsYouTubeRegular reports whether the URL points at a non-Shorts YouTube video.
func IsYouTubeRegular(rawURL string) bool {
	h := host(rawURL)
	if !hostMatches(h, "youtube.com") && !hostMatches(h, "youtu.be") {
		return false
	}
	return !strings.HasPrefix(path(rawURL), "/shorts/")
}

// IsTikTok reports whether the URL points at TikTok.
func IsTikTok(rawURL string) bool {
	return hostMatches(host(rawURL), "tiktok.com")
}

// IsInstagram reports whether the URL points at an Instagram reel or post.
func IsInstagram(rawURL string) bool {
	h := host(rawURL)
	if !hostMatches(h, "instagram.com") && !hostMatches(h, "instagr.am") {
		return false
	}
	p := path(rawURL)
	return strings.HasPrefix(p, "/reel/") ||
		strings.HasPrefix(p, "/reels/") ||
		strings.HasPrefix(p, "/p/") ||
		strings.Contains(p, "/reel/") ||
		strings.Contains(p, "/reels/")
}

// IsInstagramPostImage reports whether the URL is an Instagram /p/ post,
// which is delivered as a still image rather than a video.
func IsInstagramPostImage(rawURL string) bool {
	return IsInstagram(rawURL) && strings.Contains(path(rawURL), "/p/")
}

// IsSpotify reports whether the URL points at Spotify.
func IsSpotify(rawURL string) bool {
	return hostMatches(host(rawURL), "spotify.com")
}

// IsSupportedURL reports whether the URL belongs to one of the supported
// media sources.
func IsSupportedURL(rawURL string) bool {
	return IsTikTok(rawURL) || IsYouTubeShorts(rawURL) || IsInstagram(rawURL) || IsSpotify(rawURL)
}

// Classify maps a request key to its coarse platform hint.
func Classify(rawURL string) constants.Platform {
	switch {
	case IsTikTok(rawURL):
		return constants.PlatformTikTok
	case IsYouTubeShorts(rawURL):
		return constants.PlatformYouTubeShorts
	case IsInstagram(rawURL):
		return constants.PlatformInstagram
	case IsSpotify(rawURL):
		return constants.PlatformSpotify
	}
	return constants.PlatformGeneric
}
