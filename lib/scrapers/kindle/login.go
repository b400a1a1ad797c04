package kindle

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

var LoginFailed = fmt.Errorf("sign-in did not reach the dashboard within the timeout")

// every step of the sign-in flow (email, password, otp, challenges)
// lives under /ap/
func isSignInUrl(u *url.URL) bool {
	return strings.Contains(u.Path, "/ap/")
}

func finalUrl(res *resty.Response) *url.URL {
	return res.RawResponse.Request.URL
}

// Login establishes an authenticated dashboard session. If the session
// cookie jar already carries a valid session this is just one request,
// otherwise it walks the sign-in forms with credentials from the vault
// and, if a challenge that needs a human remains, polls until it is
// cleared or the login timeout expires.
func (c *Client) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(dashboardPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch dashboard")
		return err
	}
	if !isSignInUrl(finalUrl(res)) {
		slog.InfoContext(ctx, "already signed in")
		return c.readCsrfToken()
	}

	slog.InfoContext(ctx, "sign-in required, fetching credentials")
	username, err := c.creds.Username(ctx)
	if err != nil {
		return err
	}
	password, err := c.creds.Password(ctx)
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse sign-in page")
		return err
	}

	if doc.Find("input[name=email]").Length() > 0 {
		doc, err = c.submitSignInForm(ctx, doc, map[string]string{"email": username})
		if err != nil {
			return fmt.Errorf("email step: %w", err)
		}
	}

	if doc.Find("input[name=password]").Length() > 0 {
		doc, err = c.submitSignInForm(ctx, doc, map[string]string{"password": password})
		if err != nil {
			return fmt.Errorf("password step: %w", err)
		}
	}

	if doc.Find("input[name=otpCode]").Length() > 0 {
		otp, err := c.creds.OTP(ctx)
		if err != nil {
			return err
		}
		if otp == "" {
			return fmt.Errorf("account asked for a one-time password but the vault item has no TOTP field")
		}
		slog.InfoContext(ctx, "filling one-time password")
		_, err = c.submitSignInForm(ctx, doc, map[string]string{
			"otpCode":        otp,
			"rememberDevice": "true",
		})
		if err != nil {
			return fmt.Errorf("otp step: %w", err)
		}
	}

	return c.waitForDashboard(ctx)
}

func signInForm(doc *goquery.Document) *goquery.Selection {
	form := doc.Find("form[name=signIn]")
	if form.Length() == 0 {
		form = doc.Find("form").First()
	}
	return form
}

// submits the page's sign-in form, carrying along every hidden input
// (session tokens, workflow state) plus the given overrides
func (c *Client) submitSignInForm(ctx context.Context, doc *goquery.Document, overrides map[string]string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "client:submitSignInForm")
	defer span.End()

	form := signInForm(doc)
	if form.Length() == 0 {
		return nil, fmt.Errorf("could not find a sign-in form on the page")
	}

	fields := map[string]string{}
	form.Find("input[name]").Each(func(_ int, input *goquery.Selection) {
		fields[input.AttrOr("name", "")] = input.AttrOr("value", "")
	})
	for key, value := range overrides {
		fields[key] = value
	}

	action := form.AttrOr("action", "")
	if action == "" {
		return nil, fmt.Errorf("sign-in form has no action")
	}
	ref, err := url.Parse(action)
	if err != nil {
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(fields).
		Post(c.baseUrl.ResolveReference(ref).String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit sign-in form")
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
}

// a captcha or device-approval challenge can only be cleared by a
// human, so keep polling the dashboard until an approval granted
// elsewhere (usually a phone) lets the session through
func (c *Client) waitForDashboard(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:waitForDashboard")
	defer span.End()

	deadline := time.Now().Add(c.loginTimeout)
	for {
		res, err := c.http.R().
			SetContext(ctx).
			Get(dashboardPath)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if !isSignInUrl(finalUrl(res)) {
			slog.InfoContext(ctx, "signed in", "landed_on", finalUrl(res).Path)
			return c.readCsrfToken()
		}
		if time.Now().After(deadline) {
			span.SetStatus(codes.Error, LoginFailed.Error())
			return LoginFailed
		}

		slog.InfoContext(ctx, "waiting for sign-in to complete, approve any verification prompt")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second * 5):
		}
	}
}

// the activities API rejects requests without the csrf token the
// dashboard hands out as a cookie
func (c *Client) readCsrfToken() error {
	for _, cookie := range c.http.GetClient().Jar.Cookies(c.baseUrl) {
		if cookie.Name == csrfCookieName {
			c.csrf = cookie.Value
			return nil
		}
	}
	return fmt.Errorf("could not find the %s cookie, historical queries would be rejected", csrfCookieName)
}
