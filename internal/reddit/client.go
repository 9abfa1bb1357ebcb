package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/zACIID/investing-echo-chambers/internal/models"
)

const (
	defaultAuthURL = "https://www.reddit.com"
	defaultAPIURL  = "https://oauth.reddit.com"
	userAgent      = "investing-echo-chambers/1.0"

	// Client-credential tokens live about an hour; refresh this much early
	// so a long harvest never sends a request on a dying token.
	tokenRefreshMargin = time.Minute
)

// FetchError is a non-2xx response from the Reddit API. Transient errors
// (rate limits, server errors) are worth retrying, permanent ones are not.
type FetchError struct {
	StatusCode int
	URL        string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("reddit API returned status %d for %s", e.StatusCode, e.URL)
}

// Transient reports whether the error is a rate limit or server-side
// failure that a retry may resolve.
func (e *FetchError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// Client talks to the Reddit API using OAuth client credentials.
type Client struct {
	clientID     string
	clientSecret string
	client       *resty.Client
	authURL      string
	apiURL       string
	accessToken  string
	tokenExpiry  time.Time
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// NewClient creates a Reddit client. Transient HTTP failures are retried
// with backoff at the request level.
func NewClient(clientID, clientSecret string) *Client {
	httpClient := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})

	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       httpClient,
		authURL:      defaultAuthURL,
		apiURL:       defaultAPIURL,
	}
}

// SetBaseURLs overrides the auth and API endpoints, used in tests.
func (c *Client) SetBaseURLs(authURL, apiURL string) {
	c.authURL = authURL
	c.apiURL = apiURL
}

// IsEnabled reports whether credentials are configured.
func (c *Client) IsEnabled() bool {
	return c.clientID != "" && c.clientSecret != ""
}

func (c *Client) authenticate(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		SetBasicAuth(c.clientID, c.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post(c.authURL + "/api/v1/access_token")

	if err != nil {
		return fmt.Errorf("reddit authentication failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return &FetchError{StatusCode: resp.StatusCode(), URL: resp.Request.URL}
	}

	var authResp authResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}

	c.accessToken = authResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(authResp.ExpiresIn)*time.Second - tokenRefreshMargin)
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.accessToken == "" || !time.Now().Before(c.tokenExpiry) {
		if err := c.authenticate(ctx); err != nil {
			return nil, err
		}
	}

	requestURL := c.apiURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	resp, err := c.doGet(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("reddit request failed: %w", err)
	}

	// A 401 mid-run means the token died before its advertised expiry:
	// refresh it and retry the request once.
	if resp.StatusCode() == 401 {
		if err := c.authenticate(ctx); err != nil {
			return nil, err
		}
		if resp, err = c.doGet(ctx, requestURL); err != nil {
			return nil, fmt.Errorf("reddit request failed: %w", err)
		}
	}

	if resp.StatusCode() != 200 {
		return nil, &FetchError{StatusCode: resp.StatusCode(), URL: requestURL}
	}

	return resp.Body(), nil
}

func (c *Client) doGet(ctx context.Context, requestURL string) (*resty.Response, error) {
	return c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.accessToken).
		SetHeader("User-Agent", userAgent).
		Get(requestURL)
}

// ListNew fetches one page of a subreddit's "new" listing, newest first.
// The returned cursor feeds the next page's after parameter; it is empty
// once the listing is exhausted.
func (c *Client) ListNew(ctx context.Context, subreddit, after string, limit int) ([]models.Submission, string, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", limit))
	if after != "" {
		query.Set("after", after)
	}

	body, err := c.get(ctx, fmt.Sprintf("/r/%s/new.json", subreddit), query)
	if err != nil {
		return nil, "", err
	}

	var page listing
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", fmt.Errorf("failed to decode listing: %w", err)
	}

	submissions := make([]models.Submission, 0, len(page.Data.Children))
	for _, child := range page.Data.Children {
		if child.Kind != kindSubmission {
			continue
		}
		var data submissionData
		if err := json.Unmarshal(child.Data, &data); err != nil {
			return nil, "", fmt.Errorf("failed to decode submission: %w", err)
		}
		submissions = append(submissions, data.toModel())
	}

	return submissions, page.Data.After, nil
}

// Thread fetches a submission and its comment tree by id. The returned
// thread's comment list is flattened fetch order; unresolved "load more"
// placeholders are reported as data on the thread, not expanded.
func (c *Client) Thread(ctx context.Context, id string) (*models.Thread, error) {
	body, err := c.get(ctx, fmt.Sprintf("/comments/%s.json", id), nil)
	if err != nil {
		return nil, err
	}

	// The endpoint returns two listings: the submission, then the tree.
	var listings []listing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode thread %s: %w", id, err)
	}
	if len(listings) < 2 || len(listings[0].Data.Children) == 0 {
		return nil, fmt.Errorf("thread %s: malformed response", id)
	}

	var subData submissionData
	if err := json.Unmarshal(listings[0].Data.Children[0].Data, &subData); err != nil {
		return nil, fmt.Errorf("failed to decode submission %s: %w", id, err)
	}

	thread := &models.Thread{Submission: subData.toModel()}
	if err := flattenTree(listings[1].Data.Children, thread); err != nil {
		return nil, fmt.Errorf("failed to flatten comment tree of %s: %w", id, err)
	}

	return thread, nil
}

// ExpandComments resolves the thread's "load more" placeholders down to the
// given minimum batch size. Placeholders hiding fewer comments than the
// threshold are dropped without a request; everything else is fetched until
// no placeholder remains, so the returned thread is fully flattened.
func (c *Client) ExpandComments(ctx context.Context, thread *models.Thread, minBatch int) error {
	pending := thread.More
	thread.More = nil

	for len(pending) > 0 {
		more := pending[0]
		pending = pending[1:]

		if more.Count < minBatch {
			logrus.Debugf("Skipping comment batch of %d (below threshold %d)", more.Count, minBatch)
			continue
		}
		if len(more.Children) == 0 {
			continue
		}

		query := url.Values{}
		query.Set("api_type", "json")
		query.Set("link_id", SubmissionFullname(thread.Submission.ID))
		query.Set("children", strings.Join(more.Children, ","))

		body, err := c.get(ctx, "/api/morechildren.json", query)
		if err != nil {
			return fmt.Errorf("failed to expand comments of %s: %w", thread.Submission.ID, err)
		}

		var resp moreChildrenResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("failed to decode morechildren response: %w", err)
		}

		for _, child := range resp.JSON.Data.Things {
			switch child.Kind {
			case kindComment:
				var data commentData
				if err := json.Unmarshal(child.Data, &data); err != nil {
					return fmt.Errorf("failed to decode expanded comment: %w", err)
				}
				thread.Comments = append(thread.Comments, data.toModel())
				// Replies nested under expanded comments arrive as
				// separate flat things, no recursion needed here.
			case kindMore:
				var data moreData
				if err := json.Unmarshal(child.Data, &data); err != nil {
					return fmt.Errorf("failed to decode more placeholder: %w", err)
				}
				pending = append(pending, data.toModel())
			}
		}
	}

	return nil
}

// SubmissionFullname returns the id in the t3-prefixed form the API expects
// for link_id parameters.
func SubmissionFullname(id string) string {
	if strings.HasPrefix(id, "t3_") {
		return id
	}
	return "t3_" + id
}
