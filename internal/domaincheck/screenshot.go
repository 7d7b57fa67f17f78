package domaincheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/huntgrid/huntkit/internal/shared/constants"
	sherrors "github.com/huntgrid/huntkit/internal/shared/errors"
)

// DefaultBrowshotBaseURL is the Browshot API root.
const DefaultBrowshotBaseURL = "https://api.browshot.com/api/v1"

// defaultMaxPolls bounds the status polling loop.
const defaultMaxPolls = 24

// ScreenshotClient captures page screenshots through the Browshot API:
// request a capture, poll until it finishes, then download the thumbnail.
type ScreenshotClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	// MaxPolls limits status checks per capture; zero means the default.
	MaxPolls int
	// Limiter paces the polling loop. The default allows one status
	// check every three seconds.
	Limiter *rate.Limiter
	// Progress, when set, is called after every poll with the attempt
	// number and the reported capture status.
	Progress func(attempt int, status string)

	log *zap.SugaredLogger
}

// NewScreenshotClient builds a Browshot client. The key may be empty if
// the caller resolves it from settings before use.
func NewScreenshotClient(apiKey string, log *zap.SugaredLogger) *ScreenshotClient {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ScreenshotClient{
		BaseURL:    DefaultBrowshotBaseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		MaxPolls:   defaultMaxPolls,
		Limiter:    rate.NewLimiter(rate.Limit(1.0/3.0), 1),
		log:        log,
	}
}

type screenshotCreate struct {
	ID json.Number `json:"id"`
}

type screenshotInfo struct {
	ID     json.Number `json:"id"`
	Status string      `json:"status"`
	Error  string      `json:"error"`
}

// Capture requests a screenshot of the target URL, waits for the capture
// to finish, and returns the thumbnail image bytes.
func (c *ScreenshotClient) Capture(ctx context.Context, target string) ([]byte, error) {
	if c.APIKey == "" {
		return nil, sherrors.New(sherrors.KindUserConfig, "Browshot API key required", "",
			"no Browshot API key was supplied",
			"add it under providers.browshot.args.authkey in the settings file,",
			"or pass it explicitly with --api-key")
	}

	id, err := c.create(ctx, target)
	if err != nil {
		return nil, err
	}
	c.log.Debugw("screenshot requested", "target", target, "id", id)

	status, err := c.waitFinished(ctx, id)
	if err != nil {
		return nil, err
	}
	if status != "finished" {
		return nil, fmt.Errorf("screenshot %s not ready after %d polls (status %q)",
			id, c.maxPolls(), status)
	}

	return c.thumbnail(ctx, id)
}

func (c *ScreenshotClient) create(ctx context.Context, target string) (string, error) {
	params := url.Values{}
	params.Set("url", target)
	params.Set("instance_id", "26")
	params.Set("size", "screen")
	params.Set("cache", "60")
	params.Set("key", c.APIKey)

	body, err := c.get(ctx, "/screenshot/create", params)
	if err != nil {
		return "", fmt.Errorf("request screenshot: %w", err)
	}
	var created screenshotCreate
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode screenshot response: %w", err)
	}
	if created.ID.String() == "" {
		return "", fmt.Errorf("screenshot response carried no id: %s", body)
	}
	return created.ID.String(), nil
}

// waitFinished polls capture status until it reports finished or error,
// or the attempt budget runs out. The last observed status is returned.
func (c *ScreenshotClient) waitFinished(ctx context.Context, id string) (string, error) {
	params := url.Values{}
	params.Set("id", id)
	params.Set("key", c.APIKey)

	status := ""
	for attempt := 1; attempt <= c.maxPolls(); attempt++ {
		if err := c.limiter().Wait(ctx); err != nil {
			return status, err
		}

		body, err := c.get(ctx, "/screenshot/info", params)
		if err != nil {
			return status, fmt.Errorf("poll screenshot %s: %w", id, err)
		}
		var info screenshotInfo
		if err := json.Unmarshal(body, &info); err != nil {
			return status, fmt.Errorf("decode screenshot status: %w", err)
		}

		status = info.Status
		if c.Progress != nil {
			c.Progress(attempt, status)
		}
		switch status {
		case "finished":
			return status, nil
		case "error":
			return status, fmt.Errorf("screenshot %s failed: %s", id, info.Error)
		}
	}
	return status, nil
}

func (c *ScreenshotClient) thumbnail(ctx context.Context, id string) ([]byte, error) {
	params := url.Values{}
	params.Set("id", id)
	params.Set("zoom", "50")
	params.Set("key", c.APIKey)

	image, err := c.get(ctx, "/screenshot/thumbnail", params)
	if err != nil {
		return nil, fmt.Errorf("fetch screenshot %s: %w", id, err)
	}
	return image, nil
}

func (c *ScreenshotClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", constants.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, path)
	}
	return io.ReadAll(resp.Body)
}

func (c *ScreenshotClient) maxPolls() int {
	if c.MaxPolls > 0 {
		return c.MaxPolls
	}
	return defaultMaxPolls
}

func (c *ScreenshotClient) limiter() *rate.Limiter {
	if c.Limiter != nil {
		return c.Limiter
	}
	return rate.NewLimiter(rate.Inf, 1)
}
