// Package kindle is a direct client for the Amazon parent dashboard.
// It signs in with credentials from a vault, discovers the household's
// child profiles and pages through the per-day activity API. Everything
// here is IO glue, the returned payloads stay opaque until extraction.
package kindle

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/cookiejar"
	"net/url"
	"time"

	"kindlestats/lib/activity"
	"kindlestats/lib/restyutil"
	"kindlestats/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/kindle")

const (
	defaultBaseUrl = "https://www.amazon.com"
	dashboardPath  = "/parentdashboard/activities/household-summary"
	householdPath  = "/parentdashboard/ajax/get-household"
	activitiesPath = "/parentdashboard/ajax/get-weekly-activities-v2"
	csrfCookieName = "ft-panda-csrf-token"
)

// Credentials supplies the account secrets on demand so they never sit
// in config files or process arguments.
type Credentials interface {
	Username(ctx context.Context) (string, error)
	Password(ctx context.Context) (string, error)
	OTP(ctx context.Context) (string, error)
}

type ClientOptions struct {
	// defaults to https://www.amazon.com
	BaseUrl     string
	Credentials Credentials
	// how long Login will keep polling for a human to clear a
	// verification challenge, defaults to 2 minutes
	LoginTimeout time.Duration
}

type Client struct {
	baseUrl      *url.URL
	http         *resty.Client
	creds        Credentials
	loginTimeout time.Duration

	csrf     string
	captured []activity.RawResponse
}

func NewClient(opts ClientOptions) (*Client, error) {
	base := opts.BaseUrl
	if base == "" {
		base = defaultBaseUrl
	}
	baseUrl, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(base)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/kindle/http")

	timeout := opts.LoginTimeout
	if timeout == 0 {
		timeout = time.Minute * 2
	}

	return &Client{
		baseUrl:      baseUrl,
		http:         client,
		creds:        opts.Credentials,
		loginTimeout: timeout,
	}, nil
}

// SetDebugOutput captures every HTTP exchange made by this client to
// the given output.
func (c *Client) SetDebugOutput(output restyutil.Output) {
	restyutil.Capture(c.http, output)
}

// Captured returns the non-window responses (currently the household
// roster) recorded during this session, for the run's audit archive.
func (c *Client) Captured() []activity.RawResponse {
	return c.captured
}

func (c *Client) absUrl(path string) string {
	return c.baseUrl.ResolveReference(&url.URL{Path: path}).String()
}

// the archive is marshaled back to JSON later, so a non-JSON body
// (an HTML error page for instance) gets wrapped instead of kept raw
func rawJsonBody(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(bytes.Clone(body))
	}
	text := string(body)
	if len(text) > 500 {
		text = text[:500]
	}
	wrapped, _ := json.Marshal(map[string]string{"_raw_text": text})
	return wrapped
}
