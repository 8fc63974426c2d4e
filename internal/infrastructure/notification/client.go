package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/Awes0314/gcm-arena/internal/platform/resilience"
)

var errWebhookTransient = crerr.New("notification webhook transient failure")

type ClientConfig struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client pushes notification events to the configured webhook endpoint.
type Client struct {
	httpClient     *fasthttp.Client
	baseURL        string
	token          string
	timeout        time.Duration
	logger         *slog.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:          strings.TrimSpace(cfg.Token),
		timeout:        timeout,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type pushPayload struct {
	RecipientID  string `json:"recipient_id"`
	Message      string `json:"message"`
	TournamentID string `json:"tournament_id,omitempty"`
	SentAt       string `json:"sent_at"`
}

func (c *Client) Push(ctx context.Context, recipientID, message, tournamentID string) error {
	if c.baseURL == "" {
		return crerr.New("notification base url is not configured")
	}
	if strings.TrimSpace(recipientID) == "" {
		return crerr.New("notification recipient is required")
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "notification circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("notification webhook is temporarily unavailable: %w", err)
		}
	}

	body, err := sonic.Marshal(pushPayload{
		RecipientID:  recipientID,
		Message:      message,
		TournamentID: tournamentID,
		SentAt:       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return crerr.Wrap(err, "marshal notification payload")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/v1/notifications")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.SetBody(body)

	err = c.httpClient.DoTimeout(req, resp, c.timeout)
	if err != nil {
		c.markFailure()
		return crerr.Wrap(err, "send notification webhook request")
	}

	status := resp.StatusCode()
	if status >= 500 {
		c.markFailure()
		c.logger.WarnContext(ctx, "notification webhook upstream failure",
			"status", status,
			"body_preview", previewBody(resp.Body()),
		)
		return crerr.Wrapf(errWebhookTransient, "status=%d", status)
	}
	if status >= 400 {
		c.markSuccess()
		return crerr.Newf("notification webhook rejected request: status=%d body=%s", status, previewBody(resp.Body()))
	}

	c.markSuccess()
	return nil
}

func (c *Client) markFailure() {
	if c.circuitEnabled {
		c.breaker.RecordFailure()
	}
}

func (c *Client) markSuccess() {
	if c.circuitEnabled {
		c.breaker.RecordSuccess()
	}
}

func previewBody(body []byte) string {
	const limit = 512

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if len(body) > limit {
		_, _ = buf.Write(body[:limit])
		_, _ = buf.WriteString("...")
	} else {
		_, _ = buf.Write(body)
	}

	return buf.String()
}
