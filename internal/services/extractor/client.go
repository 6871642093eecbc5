package extractor

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/interfaces"
)

// Client talks to the boilerplate-removal service over HTTP. Requests are
// form posts carrying the raw page; responses are small XML envelopes with
// the extracted body text and the service's version.
type Client struct {
	endpoint    string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxBodySize int64
	logger      arbor.ILogger
}

// envelope mirrors the service's XML response. A present
// ExtractionFailureResponse means the page had no extractable body.
type envelope struct {
	ServerInfo struct {
		Version string `xml:"Version"`
	} `xml:"ServerInfo"`
	Response                  *string   `xml:"Response"`
	ExtractionFailureResponse *struct{} `xml:"ExtractionFailureResponse"`
}

// NewClient creates an extractor client from config.
func NewClient(config *common.ExtractorConfig, logger arbor.ILogger) *Client {
	maxBody := int64(config.MaxBodySize)
	if maxBody <= 0 {
		maxBody = 8 << 20
	}
	return &Client{
		endpoint: config.URL,
		httpClient: &http.Client{
			Timeout: config.TimeoutDuration(),
		},
		limiter:     rate.NewLimiter(rate.Limit(config.RatePerSec), config.RateBurst),
		maxBodySize: maxBody,
		logger:      logger,
	}
}

// Extract posts a page to the service and returns its boilerplate-free
// text. A failed extraction returns an Extraction with empty Text, not an
// error; errors mean the service misbehaved.
func (c *Client) Extract(ctx context.Context, body []byte) (*interfaces.Extraction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("charset", "UTF-8")
	form.Set("content", string(body))
	form.Set("method", "default")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post to extractor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extractor returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read extractor response: %w", err)
	}

	var env envelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("parse extractor response: %w", err)
	}

	if env.ServerInfo.Version == "" {
		return nil, fmt.Errorf("extractor response missing version information")
	}

	extraction := &interfaces.Extraction{Version: env.ServerInfo.Version}

	if env.ExtractionFailureResponse != nil {
		c.logger.Debug().Msg("Extractor reported no extractable content")
		return extraction, nil
	}

	if env.Response == nil {
		return nil, fmt.Errorf("extractor response missing body text")
	}

	// Downstream text handling is ASCII. Characters outside that range are
	// dropped, matching the store's keyword charset.
	extraction.Text = toASCII(*env.Response)
	return extraction, nil
}

// toASCII drops every byte above 0x7F.
func toASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
