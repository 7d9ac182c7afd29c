package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/MarkovWon/Knowdes/pkg/cache"
	kerrors "github.com/MarkovWon/Knowdes/pkg/errors"
	"github.com/MarkovWon/Knowdes/pkg/graph"
	"github.com/MarkovWon/Knowdes/pkg/httputil"
	"github.com/MarkovWon/Knowdes/pkg/observability"
)

// Options configures a [Client].
type Options struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string
	// Model is the model identifier sent with every request.
	Model string
	// APIKey is the bearer token. May be empty for local backends.
	APIKey string
	// Timeout bounds a single HTTP request.
	Timeout time.Duration
	// CacheTTL is the lifetime of cached completions.
	CacheTTL time.Duration
}

// Client is a [Generator] and [Planner] backed by an OpenAI-compatible
// chat completions API, with response caching and retry.
type Client struct {
	http   *http.Client
	cache  cache.Cache
	opts   Options
	logger *log.Logger
}

// NewClient creates a generation client. Pass a NullCache to disable
// caching and a nil logger to silence the client.
func NewClient(opts Options, c cache.Cache, logger *log.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		http:   &http.Client{Timeout: opts.Timeout},
		cache:  c,
		opts:   opts,
		logger: logger,
	}
}

// Generate requests a graph fragment for req.
func (c *Client) Generate(ctx context.Context, req Request) (graph.Fragment, error) {
	if err := kerrors.ValidateTopic(req.Topic); err != nil {
		return graph.Fragment{}, err
	}

	start := time.Now()
	observability.Generation().OnGenerateStart(ctx, req.Topic, len(req.Focus))

	content, err := c.complete(ctx, graphPrompt(req))
	if err != nil {
		observability.Generation().OnGenerateComplete(ctx, req.Topic, 0, time.Since(start), err)
		return graph.Fragment{}, err
	}

	var frag graph.Fragment
	if err := json.Unmarshal([]byte(stripFences(content)), &frag); err != nil {
		err = kerrors.Wrap(kerrors.ErrCodeGeneration, err, "model returned unparsable fragment")
		observability.Generation().OnGenerateComplete(ctx, req.Topic, 0, time.Since(start), err)
		return graph.Fragment{}, err
	}
	if len(frag.Nodes) == 0 && len(frag.Links) == 0 {
		err := kerrors.New(kerrors.ErrCodeGeneration, "model returned an empty fragment")
		observability.Generation().OnGenerateComplete(ctx, req.Topic, 0, time.Since(start), err)
		return graph.Fragment{}, err
	}

	c.logger.Debug("fragment generated", "nodes", len(frag.Nodes), "links", len(frag.Links))
	observability.Generation().OnGenerateComplete(ctx, req.Topic, len(frag.Nodes), time.Since(start), nil)
	return frag, nil
}

// Plan requests a short study plan for one node.
func (c *Client) Plan(ctx context.Context, topic string, node graph.NodeRef) (string, error) {
	content, err := c.complete(ctx, planPrompt(topic, node))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// =============================================================================
// Chat Completions Plumbing
// =============================================================================

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete returns the assistant message for prompt, via cache when
// possible. Cached entries store the raw message content.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	key := cache.Key("completion", c.opts.Model, prompt)

	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		c.logger.Debug("completion cache hit")
		return string(data), nil
	}

	var content string
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		content, err = c.doRequest(ctx, prompt)
		return err
	})
	if err != nil {
		return "", err
	}

	_ = c.cache.Set(ctx, key, []byte(content), c.opts.CacheTTL)
	return content, nil
}

func (c *Client) doRequest(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", kerrors.Wrap(kerrors.ErrCodeInternal, err, "encode request")
	}

	url := strings.TrimSuffix(c.opts.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", kerrors.Wrap(kerrors.ErrCodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &httputil.RetryableError{Err: kerrors.Wrap(kerrors.ErrCodeNetwork, err, "request failed")}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", kerrors.Wrap(kerrors.ErrCodeGeneration, err, "malformed completion response")
	}
	if len(parsed.Choices) == 0 {
		return "", kerrors.New(kerrors.ErrCodeGeneration, "completion response carried no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return kerrors.New(kerrors.ErrCodeInvalidInput, "backend rejected the API key")
	case resp.StatusCode == http.StatusTooManyRequests:
		return &httputil.RetryableError{Err: &kerrors.RateLimitedError{}}
	case resp.StatusCode >= 500:
		return &httputil.RetryableError{Err: kerrors.New(kerrors.ErrCodeNetwork, "backend error: status %d", resp.StatusCode)}
	default:
		return kerrors.New(kerrors.ErrCodeNetwork, "unexpected status %d", resp.StatusCode)
	}
}

var (
	_ Generator = (*Client)(nil)
	_ Planner   = (*Client)(nil)
)
