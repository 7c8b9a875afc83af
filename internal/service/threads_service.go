package service

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	config "github.com/maheshrc27/threadflow/configs"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

// ThreadsClient speaks the Threads Graph API publish protocol. One call per
// phase: container creation (also the single-phase path for auto-published
// text), child container fan-out for carousels, and the final publish.
type ThreadsClient interface {
	CreateContainer(ctx context.Context, params url.Values, accessToken string) (string, error)
	CreateChildContainers(ctx context.Context, children []url.Values, accessToken string) ([]string, error)
	PublishContainer(ctx context.Context, containerID, accessToken string) (string, error)
}

type threadsClient struct {
	cfg    config.Config
	client *http.Client
}

const requestTimeout = 30 * time.Second

func NewThreadsClient(cfg config.Config) ThreadsClient {
	client := &http.Client{Timeout: requestTimeout}
	if cfg.InsecureSkipVerify {
		log.Println("WARNING: TLS certificate verification for the Graph API is DISABLED (REJECT_UNAUTHORIZED=false). Never run this way in production.")
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &threadsClient{cfg: cfg, client: client}
}

func (c *threadsClient) CreateContainer(ctx context.Context, params url.Values, accessToken string) (string, error) {
	reqURL, err := c.buildGraphAPIURL("me/threads", params, accessToken)
	if err != nil {
		return "", err
	}
	return c.postForID(ctx, reqURL)
}

// CreateChildContainers creates one container per carousel item, issuing the
// requests concurrently. Any single failure aborts the attempt; the caller
// never sees a partial id list.
func (c *threadsClient) CreateChildContainers(ctx context.Context, children []url.Values, accessToken string) ([]string, error) {
	ids := make([]string, len(children))
	errs := make([]error, len(children))

	var wg sync.WaitGroup
	for i, child := range children {
		wg.Add(1)
		go func(i int, child url.Values) {
			defer wg.Done()

			reqURL, err := c.buildGraphAPIURL("me/threads", child, accessToken)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i], errs[i] = c.postForID(ctx, reqURL)
		}(i, child)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, &CarouselChildError{Index: i, Err: err}
		}
	}
	return ids, nil
}

func (c *threadsClient) PublishContainer(ctx context.Context, containerID, accessToken string) (string, error) {
	params := url.Values{}
	params.Set(ParamCreationID, containerID)

	reqURL, err := c.buildGraphAPIURL("me/threads_publish", params, accessToken)
	if err != nil {
		return "", err
	}
	return c.postForID(ctx, reqURL)
}

// postForID issues an empty-bodied POST and decodes the {id} response. A
// non-2xx status becomes a GraphAPIError carrying the structured remote
// message when the body has one.
func (c *threadsClient) postForID(ctx context.Context, reqURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &GraphAPIError{StatusCode: resp.StatusCode}
		var errResp transfer.ThreadsErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			apiErr.Message = errResp.Error.Message
		}
		slog.Info("Graph API request failed", "status", resp.StatusCode, "body", string(respBody))
		return "", apiErr
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("no id returned from Threads")
	}
	return result.ID, nil
}

// buildGraphAPIURL puts all parameters, including the bearer token, on the
// query string the way the Graph API expects.
func (c *threadsClient) buildGraphAPIURL(path string, params url.Values, accessToken string) (string, error) {
	base := c.cfg.GraphAPIBaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	if c.cfg.GraphAPIVersion != "" {
		base += c.cfg.GraphAPIVersion + "/"
	}

	u, err := url.Parse(base + path)
	if err != nil {
		return "", fmt.Errorf("error building Graph API URL: %w", err)
	}

	query := url.Values{}
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	query.Set(ParamAccessToken, accessToken)
	u.RawQuery = query.Encode()

	return u.String(), nil
}
