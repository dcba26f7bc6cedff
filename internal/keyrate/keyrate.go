// Package keyrate looks up the Central Bank of Russia key rate and turns it
// into a suggested mortgage interest rate.
package keyrate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/iwvelando/mortgage-calculator/internal/config"
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"go.uber.org/zap"
)

// ErrNoRate is returned when the response holds no key rate entries.
var ErrNoRate = errors.New("no key rate data found in response")

const soapEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
	<soap12:Body>
		<KeyRate xmlns="http://web.cbr.ru/">
			<fromDate>%s</fromDate>
			<ToDate>%s</ToDate>
		</KeyRate>
	</soap12:Body>
</soap12:Envelope>`

// Rate is a key rate observation with the suggested loan rate derived from it.
type Rate struct {
	Date      string  `json:"date,omitempty"`
	KeyRate   float64 `json:"keyRate"`
	Margin    float64 `json:"margin"`
	Suggested float64 `json:"suggestedRate"`
}

// Client queries the central bank web service.
type Client struct {
	url          string
	margin       float64
	lookbackDays int
	httpClient   *http.Client
	logger       *zap.Logger
	now          func() time.Time
}

// NewClient returns a Client configured from conf.
func NewClient(conf config.KeyRateConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	url := conf.URL
	if url == "" {
		url = constants.DefaultKeyRateURL
	}
	lookback := conf.LookbackDays
	if lookback <= 0 {
		lookback = constants.DefaultKeyRateLookbackDays
	}
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:          url,
		margin:       conf.Margin,
		lookbackDays: lookback,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
		now:          time.Now,
	}
}

func (c *Client) buildRequest() string {
	to := c.now()
	from := to.AddDate(0, 0, -c.lookbackDays)
	return fmt.Sprintf(soapEnvelope, from.Format(constants.DateTimeLayout), to.Format(constants.DateTimeLayout))
}

func (c *Client) send(ctx context.Context, body string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBufferString(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("key rate response received",
		zap.String("op", "keyrate.send"),
		zap.Int("bytes", len(raw)),
	)
	return raw, nil
}

// ParseResponse extracts the most recent key rate and its date from a
// KeyRate SOAP response. The service lists the newest observation first.
func ParseResponse(raw []byte) (float64, string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return 0, "", fmt.Errorf("failed to parse XML: %w", err)
	}

	entries := doc.FindElements("//diffgram/KeyRate/KR")
	if len(entries) == 0 {
		return 0, "", ErrNoRate
	}

	latest := entries[0]
	rateElement := latest.FindElement("./Rate")
	if rateElement == nil {
		return 0, "", fmt.Errorf("rate element not found in XML")
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(rateElement.Text()), 64)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse rate %q: %w", rateElement.Text(), err)
	}

	var date string
	if dt := latest.FindElement("./DT"); dt != nil {
		date = strings.TrimSpace(dt.Text())
		if len(date) >= len(constants.DateTimeLayout) {
			date = date[:len(constants.DateTimeLayout)]
		}
	}
	return rate, date, nil
}

// Fetch returns the current key rate plus the configured bank margin.
func (c *Client) Fetch(ctx context.Context) (Rate, error) {
	raw, err := c.send(ctx, c.buildRequest())
	if err != nil {
		return Rate{}, err
	}

	keyRate, date, err := ParseResponse(raw)
	if err != nil {
		return Rate{}, err
	}

	rate := Rate{
		Date:      date,
		KeyRate:   keyRate,
		Margin:    c.margin,
		Suggested: keyRate + c.margin,
	}
	c.logger.Info(fmt.Sprintf("retrieved key rate: %.2f%% (suggested %.2f%% with %.2f%% bank margin)",
		rate.KeyRate, rate.Suggested, rate.Margin),
		zap.String("op", "keyrate.Fetch"),
	)
	return rate, nil
}
