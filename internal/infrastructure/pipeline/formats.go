// Package pipeline implements the media acquisition pipeline: a format
// ladder tried candidate by candidate under one outer deadline, with size
// budgets and container normalization.
package pipeline

import (
	"fmt"

	"github.com/clipgate/clipgate/internal/domain/models"
	"github.com/clipgate/clipgate/pkg/constants"
)

// Ladder returns the ordered format candidates for a media kind and
// platform hint, from most preferred (highest quality, preferred container)
// to least preferred (guaranteed compatible). Pure function so the ladders
// are testable without any provider.
func Ladder(kind constants.MediaKind, platform constants.Platform, preferHeight int) []models.FormatCandidate {
	if preferHeight <= 0 {
		preferHeight = constants.DefaultPreferHeight
	}

	switch kind {
	case constants.MediaKindAudio:
		return []models.FormatCandidate{
			{Spec: "bestaudio[ext=m4a]/bestaudio[ext=mp3]/bestaudio/best", Label: "audio-preferred"},
			{Spec: "bestaudio/best", Label: "audio-any"},
		}

	case constants.MediaKindImage, constants.MediaKindDocument:
		return []models.FormatCandidate{
			{Spec: "b/best", Label: "best-single"},
			{Spec: "best", Label: "best"},
		}
	}

	// Video ladders differ per platform: shorts sources offer merged
	// streams at many heights, instagram rarely offers anything beyond
	// progressive mp4, everything else gets the codec-pinned ladder.
	switch platform {
	case constants.PlatformYouTubeShorts:
		return []models.FormatCandidate{
			{Spec: "bv*+ba/b[ext=mp4]/b", Label: "merged-best"},
			{Spec: "bv[height<=1080]+ba/b[height<=1080]", Label: "merged-1080"},
			{Spec: "bv[height<=720]+ba/b[height<=720]", Label: "merged-720"},
			{Spec: "best[height<=1080]/best[height<=720]", Label: "progressive-1080"},
			{Spec: "best[ext=mp4]/best", Label: "mp4-best"},
			{Spec: "worst[height>=360]", Label: "floor-360"},
			{Spec: "best", Label: "best"},
		}

	case constants.PlatformInstagram:
		return []models.FormatCandidate{
			{Spec: "best[ext=mp4]/best", Label: "mp4-best"},
			{Spec: "best[height<=1080]/best[height<=720]", Label: "progressive-1080"},
			{Spec: fmt.Sprintf("b[height<=%d]", preferHeight), Label: "capped-height"},
			{Spec: "worst[height>=360]", Label: "floor-360"},
			{Spec: "best", Label: "best"},
		}
	}

	return []models.FormatCandidate{
		{Spec: fmt.Sprintf("bv*[ext=mp4][vcodec^=avc1][height<=%d]+ba[ext=m4a]", preferHeight), Label: "avc1-merged"},
		{Spec: fmt.Sprintf("b[ext=mp4][vcodec^=avc1][height<=%d]", preferHeight), Label: "avc1-progressive"},
		{Spec: fmt.Sprintf("b[height<=%d]", preferHeight), Label: "capped-height"},
		{Spec: "best[ext=mp4]/best", Label: "mp4-best"},
		{Spec: "best", Label: "best"},
	}
}
