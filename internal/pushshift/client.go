package pushshift

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/zACIID/investing-echo-chambers/internal/models"
)

const defaultBaseURL = "https://api.pushshift.io"

// Client queries a Pushshift-style historical search index. The index only
// stores lightweight submission metadata; callers re-resolve the returned
// ids through the live Reddit client for full comment trees.
type Client struct {
	client   *resty.Client
	baseURL  string
	pageSize int
}

type searchResponse struct {
	Data []struct {
		ID         string `json:"id"`
		CreatedUTC int64  `json:"created_utc"`
	} `json:"data"`
}

// NewClient creates a historical search client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetRetryCount(3).
			SetRetryWaitTime(2 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil {
					return true
				}
				return r.StatusCode() == 429 || r.StatusCode() >= 500
			}),
		baseURL:  baseURL,
		pageSize: 250,
	}
}

// SearchSubmissionIDs enumerates submission refs created in [after, before)
// matching the query/subreddit, paging with a descending created_utc cursor
// until the window is drained.
func (c *Client) SearchSubmissionIDs(ctx context.Context, query, subreddit string, after, before time.Time) ([]models.SubmissionRef, error) {
	var refs []models.SubmissionRef
	cursor := before

	for {
		params := url.Values{}
		params.Set("after", fmt.Sprintf("%d", after.Unix()))
		params.Set("before", fmt.Sprintf("%d", cursor.Unix()))
		params.Set("size", fmt.Sprintf("%d", c.pageSize))
		params.Set("sort", "desc")
		params.Set("fields", "id,created_utc")
		if query != "" {
			params.Set("q", query)
		}
		if subreddit != "" {
			params.Set("subreddit", subreddit)
		}

		requestURL := c.baseURL + "/reddit/search/submission/?" + params.Encode()
		resp, err := c.client.R().SetContext(ctx).Get(requestURL)
		if err != nil {
			return nil, fmt.Errorf("historical search request failed: %w", err)
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("historical search returned status %d", resp.StatusCode())
		}

		var page searchResponse
		if err := json.Unmarshal(resp.Body(), &page); err != nil {
			return nil, fmt.Errorf("failed to decode historical search response: %w", err)
		}
		if len(page.Data) == 0 {
			break
		}

		for _, item := range page.Data {
			created := time.Unix(item.CreatedUTC, 0).UTC()
			if created.Before(after) || !created.Before(before) {
				continue
			}
			refs = append(refs, models.SubmissionRef{ID: item.ID, CreatedAt: created})
		}

		oldest := time.Unix(page.Data[len(page.Data)-1].CreatedUTC, 0).UTC()
		if !oldest.Before(cursor) {
			// Cursor did not advance, bail out instead of looping forever.
			logrus.Warnf("Historical search cursor stuck at %s, stopping pagination", oldest)
			break
		}
		cursor = oldest
	}

	logrus.Debugf("Historical search yielded %d submission refs in [%s, %s)",
		len(refs), after.Format(time.RFC3339), before.Format(time.RFC3339))
	return refs, nil
}
