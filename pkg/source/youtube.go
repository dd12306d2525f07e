package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BrianHicks/finch/duration"
	"github.com/pkg/errors"
	"google.golang.org/api/youtube/v3"

	"github.com/oladoye/sitesync/pkg/model"
)

// maxSearchResults is the YouTube API limit per search request
const maxSearchResults = 50

type apiKey string

func (key apiKey) Get() (string, string) {
	return "key", string(key)
}

// YouTube lists a channel's recent uploads via the Data API v3. Search
// results carry ids only, so full snippets, statistics and durations come
// from a second videos call.
type YouTube struct {
	client *youtube.Service
	key    apiKey
}

func NewYouTube(key string) (*YouTube, error) {
	if key == "" {
		return nil, errors.Wrap(model.ErrConfigurationMissing, "youtube API key is not set")
	}

	yt, err := youtube.New(&http.Client{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create youtube client")
	}

	return &YouTube{client: yt, key: apiKey(key)}, nil
}

// FetchRecent returns up to limit of the channel's most recent videos,
// ordered by recency. It does not deduplicate or filter by date.
//
// Cost: 100 units for search plus 1 per page of details.
func (yt *YouTube) FetchRecent(ctx context.Context, channelID string, limit int64) ([]*Candidate, error) {
	if limit <= 0 || limit > maxSearchResults {
		limit = model.DefaultPageSize
	}

	req := yt.client.Search.List("id").
		ChannelId(channelID).
		MaxResults(limit).
		Order("date").
		Type("video")

	resp, err := req.Do(yt.key)
	if err != nil {
		return nil, errors.Wrapf(model.ErrSourceUnavailable, "youtube search failed: %v", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}

	if len(ids) == 0 {
		return nil, nil
	}

	return yt.FetchDetails(ctx, ids)
}

// FetchDetails queries full video details for a list of ids.
func (yt *YouTube) FetchDetails(_ context.Context, ids []string) ([]*Candidate, error) {
	req := yt.client.Videos.List("id,snippet,statistics,contentDetails").Id(strings.Join(ids, ","))

	resp, err := req.Do(yt.key)
	if err != nil {
		return nil, errors.Wrapf(model.ErrSourceUnavailable, "youtube videos query failed: %v", err)
	}

	candidates := make([]*Candidate, 0, len(resp.Items))

	for _, video := range resp.Items {
		snippet := video.Snippet
		if snippet == nil {
			continue
		}

		publishedAt, err := time.Parse(time.RFC3339, snippet.PublishedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse video publish date: %s", snippet.PublishedAt)
		}

		c := &Candidate{
			ExternalID:  video.Id,
			Title:       snippet.Title,
			Description: snippet.Description,
			PublishedAt: publishedAt,
		}

		_ = c.setExtra("thumbnailUrl", selectThumbnail(snippet.Thumbnails, video.Id))
		_ = c.setExtra("channelTitle", snippet.ChannelTitle)

		if len(snippet.Tags) > 0 {
			_ = c.setExtra("tags", snippet.Tags)
		}

		if video.ContentDetails != nil {
			_ = c.setExtra("duration", FormatDuration(video.ContentDetails.Duration))
		}

		if stats := video.Statistics; stats != nil {
			_ = c.setExtra("views", stats.ViewCount)
			_ = c.setExtra("likes", stats.LikeCount)
			_ = c.setExtra("comments", stats.CommentCount)
		}

		candidates = append(candidates, c)
	}

	return candidates, nil
}

func selectThumbnail(snippet *youtube.ThumbnailDetails, videoID string) string {
	if snippet == nil {
		return fmt.Sprintf("https://img.youtube.com/vi/%s/default.jpg", videoID)
	}

	if snippet.Maxres != nil {
		return snippet.Maxres.Url
	}

	if snippet.High != nil {
		return snippet.High.Url
	}

	if snippet.Medium != nil {
		return snippet.Medium.Url
	}

	if snippet.Default != nil {
		return snippet.Default.Url
	}

	return fmt.Sprintf("https://img.youtube.com/vi/%s/default.jpg", videoID)
}

// FormatDuration renders an ISO-8601 duration (PT4M13S) as 4:13. Unparsable
// input renders as 0:00 rather than failing the whole pass.
func FormatDuration(iso string) string {
	if iso == "" {
		return "0:00"
	}

	d, err := duration.FromString(iso)
	if err != nil {
		return "0:00"
	}

	total := int64(d.ToDuration().Seconds())

	var (
		hours   = total / 3600
		minutes = (total % 3600) / 60
		seconds = total % 60
	)

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
