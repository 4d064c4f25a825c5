// Package smsportal drives the legacy SMS range portal. The portal has
// no structured API: every operation replays the browser's form posts
// and headers against server-rendered PHP pages, and the server keeps
// per-session state (a client must be "opened" before its range tokens
// are accepted).
package smsportal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"rangedesk-backend/lib/formcodec"
	"rangedesk-backend/lib/restyutil"
	"rangedesk-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/smsportal")

var ErrLogin = fmt.Errorf("failed to log in to the portal")

const (
	loginPath     = "/index.php?login=1"
	allRangesPath = "/index.php?opt=shw_all_v2"
	// referer the browser carries on the login post; the portal drops
	// posts whose referer doesn't match the page it expects
	loginRefererPath = "/index.php?opt=shw_allo"

	sessionCookieName = "PHPSESSID"

	fetchTimeout  = time.Second * 15
	submitTimeout = time.Second * 20
)

// Credentials selects the login strategy. Exactly one of the three must
// be set: a PHPSESSID captured out-of-band, a raw login form body
// captured from the browser, or a username/password pair.
type Credentials struct {
	SessionCookie string `json:"session_cookie"`
	RawLoginForm  string `json:"raw_login_form"`
	Username      string `json:"username"`
	Password      string `json:"password"`
}

type ClientOptions struct {
	BaseUrl     string
	UserAgent   string
	Credentials Credentials
	// wraps the transport with a cloudflare bot-protection bypass,
	// needed when the portal sits behind an interstitial
	CloudflareBypass bool
}

// Client is one cookie-bearing conversation with the portal. Construct a
// fresh one per logical operation; the upstream's per-session state makes
// it unsafe to share or interleave.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	creds Credentials
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("origin", opts.BaseUrl)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(submitTimeout)

	telemetry.InstrumentResty(client, "scrapers/smsportal/http")
	restyutil.InstrumentClient(client, restyInstrumentOutput)

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
		creds:   opts.Credentials,
	}
	return c, nil
}

// Login establishes the session using whichever credential material is
// configured. Cookie injection attaches the captured PHPSESSID to the
// jar without any network call and without validating it; the other two
// strategies issue a single login post and never retry.
func (c *Client) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	if c.creds.SessionCookie != "" {
		c.Http.GetClient().Jar.SetCookies(c.BaseUrl, []*http.Cookie{{
			Name:  sessionCookieName,
			Value: c.creds.SessionCookie,
		}})
		return nil
	}

	var form map[string]string
	switch {
	case c.creds.RawLoginForm != "":
		form = formcodec.Decode(c.creds.RawLoginForm)
	case c.creds.Username != "":
		form = map[string]string{
			"username": c.creds.Username,
			"password": c.creds.Password,
		}
	default:
		span.SetStatus(codes.Error, "no credential material configured")
		return fmt.Errorf("%w: no credential material configured", ErrLogin)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(form).
		SetHeader("referer", c.BaseUrl.String()+loginRefererPath).
		Post(loginPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login request failed")
		return fmt.Errorf("%w: %s", ErrLogin, err.Error())
	}
	if !res.IsSuccess() {
		span.SetStatus(codes.Error, "login rejected")
		return fmt.Errorf("%w: status %d", ErrLogin, res.StatusCode())
	}
	return nil
}

// FetchClientsPage gets the "all ranges" page, whose client picker lists
// every client visible to the account.
func (c *Client) FetchClientsPage(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchClientsPage")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("referer", c.BaseUrl.String()+loginPath).
		Get(allRangesPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch clients page")
		return "", err
	}
	if !res.IsSuccess() {
		span.SetStatus(codes.Error, "unexpected status")
		return "", fmt.Errorf("fetch clients page: status %d", res.StatusCode())
	}
	return res.String(), nil
}

// OpenClient selects a client context on the server. The portal keeps
// this selection in session state; range tokens on the returned page are
// only valid for allocation after the client has been opened in the same
// session.
func (c *Client) OpenClient(ctx context.Context, externalId string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:OpenClient")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"selidd":    externalId,
			"selected2": "1",
		}).
		SetHeader("referer", c.BaseUrl.String()+allRangesPath).
		Post(allRangesPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open client")
		return "", err
	}
	if !res.IsSuccess() {
		span.SetStatus(codes.Error, "unexpected status")
		return "", fmt.Errorf("open client: status %d", res.StatusCode())
	}
	return res.String(), nil
}

// SubmitAllocation posts one allocation attempt and reports the raw
// status and body; outcome classification is the caller's job. The
// client context for externalId must have been opened in this session.
func (c *Client) SubmitAllocation(ctx context.Context, externalId, rangeToken string, quantity int) (int, string, error) {
	ctx, span := tracer.Start(ctx, "client:SubmitAllocation")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"quantity": strconv.Itoa(quantity),
			"selidd":   externalId,
			"selrng":   rangeToken,
			"allocate": "1",
		}).
		SetHeader("referer", c.BaseUrl.String()+allRangesPath).
		Post(allRangesPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "allocation request failed")
		return 0, "", err
	}
	return res.StatusCode(), res.String(), nil
}
