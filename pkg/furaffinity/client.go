package furaffinity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"fascraper/pkg/config"
	errs "fascraper/pkg/errors"
	"fascraper/pkg/logger"
	"fascraper/pkg/ratelimit"

	"golang.org/x/net/publicsuffix"
)

// DefaultUserAgent is sent unless SetUserAgent overrides it
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Client is a cookie-authenticated session with the site. A Client is not
// safe for concurrent use.
type Client struct {
	httpClient *http.Client
	jar        http.CookieJar
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
	location   *time.Location

	requestLimiter ratelimit.Limiter
	pageLimiter    ratelimit.Limiter

	loggedIn bool
}

// NewClient creates a client with its own cookie jar, a one second delay
// between listing pages and no cap on the overall request rate.
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		jar: jar,
		headers: map[string]string{
			"User-Agent":      DefaultUserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		baseURL:        BaseURL,
		logger:         log,
		location:       time.UTC,
		requestLimiter: ratelimit.Nop{},
		pageLimiter:    ratelimit.NewPacer(time.Second),
	}
}

// NewClientFromConfig builds a client from loaded configuration. Cookies in
// the configuration are not installed; call LoginWithCookies for that.
func NewClientFromConfig(cfg *config.Config, log logger.Logger) (*Client, error) {
	c := NewClient(cfg.HTTP.Timeout, log)

	if cfg.Session.BaseURL != "" {
		c.SetBaseURL(cfg.Session.BaseURL)
	}
	if cfg.Session.UserAgent != "" {
		c.SetUserAgent(cfg.Session.UserAgent)
	}
	if cfg.Session.Location != "" {
		loc, err := time.LoadLocation(cfg.Session.Location)
		if err != nil {
			return nil, errs.Wrap(errs.ErrorTypeInvalidArgument, err, "invalid location %q", cfg.Session.Location)
		}
		c.location = loc
	}

	c.requestLimiter = ratelimit.NewRequestLimiter(cfg.RateLimit.RequestsPerMinute)
	c.pageLimiter = ratelimit.NewPacer(cfg.RateLimit.PageDelay)
	return c, nil
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// SetUserAgent replaces the User-Agent header
func (c *Client) SetUserAgent(ua string) {
	c.headers["User-Agent"] = ua
}

// SetBaseURL points the client at another host, mainly for tests
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

// SetHTTPClient swaps the underlying HTTP client. The session cookie jar is
// attached if the new client has none.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc.Jar == nil {
		hc.Jar = c.jar
	} else {
		c.jar = hc.Jar
	}
	c.httpClient = hc
}

// SetRequestLimiter sets the limiter consulted before every request
func (c *Client) SetRequestLimiter(l ratelimit.Limiter) {
	c.requestLimiter = l
}

// SetPageLimiter sets the limiter consulted between listing pages
func (c *Client) SetPageLimiter(l ratelimit.Limiter) {
	c.pageLimiter = l
}

// SetLocation sets the zone submission times are read in
func (c *Client) SetLocation(loc *time.Location) {
	c.location = loc
}

// LoggedIn reports whether LoginWithCookies succeeded
func (c *Client) LoggedIn() bool {
	return c.loggedIn
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if err := c.requestLimiter.Wait(req.Context()); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeRateLimit, err, "rate limiter wait aborted")
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "%s %s", req.Method, req.URL)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}

// checkResponseStatus rejects throttling and server failures. Other error
// statuses still carry a page the classifier can read.
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{Type: errs.ErrorTypeRateLimit, Message: "rate limit exceeded", Code: resp.StatusCode}
	case resp.StatusCode >= 500:
		return &errs.Error{Type: errs.ErrorTypeServerError, Message: "server error", Code: resp.StatusCode}
	default:
		return nil
	}
}

func (c *Client) fetch(req *http.Request) (*Page, error) {
	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: "failed to read response body",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}
	return NewPage(req.URL.String(), body)
}

func (c *Client) get(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	return c.fetch(req)
}

func (c *Client) postForm(ctx context.Context, pageURL string, form url.Values) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pageURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.fetch(req)
}

func (c *Client) requireLogin() error {
	if !c.loggedIn {
		return errs.ErrNotAuthenticated
	}
	return nil
}

// LoginWithCredentials is not supported; sessions are established from
// browser cookies only.
func (c *Client) LoginWithCredentials(ctx context.Context, username, password string) error {
	return errs.ErrNotImplemented
}

// LoginWithCookies installs session cookies (usually "a" and "b") and
// verifies them against the front page.
func (c *Client) LoginWithCookies(ctx context.Context, cookies map[string]string) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeInvalidArgument, err, "invalid base URL")
	}

	jarCookies := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		jarCookies = append(jarCookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	c.jar.SetCookies(u, jarCookies)
	c.loggedIn = false

	ok, err := c.CheckLogin(ctx)
	if err != nil {
		return err
	}
	if !ok {
		c.logger.Warn("session cookies were rejected")
		return errs.ErrLoginFailed
	}

	c.loggedIn = true
	c.logger.Info("logged in with session cookies")
	return nil
}

// CheckLogin reports whether the front page shows a logged in username
func (c *Client) CheckLogin(ctx context.Context) (bool, error) {
	page, err := c.get(ctx, HomeURL(c.baseURL))
	if err != nil {
		return false, err
	}
	return page.Doc.Find("a#my-username").Length() > 0, nil
}

// GetSubmission fetches and classifies a submission page
func (c *Client) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errs.New(errs.ErrorTypeInvalidArgument, "submission id is required")
	}

	page, err := c.get(ctx, SubmissionURL(c.baseURL, id))
	if err != nil {
		return nil, err
	}

	if err := Classify(page); err != nil {
		c.logger.WarnWithFields("submission page reported an error", map[string]interface{}{
			"submission": id,
			"error":      err.Error(),
		})
		return nil, err
	}

	sub := NewSubmission(id, page)
	sub.baseURL = c.baseURL
	sub.http = c.httpClient
	sub.logger = c.logger
	sub.location = c.location
	return sub, nil
}

// GetSubmissionEntry fetches the submission a listing entry refers to
func (c *Client) GetSubmissionEntry(ctx context.Context, entry ListingEntry) (*Submission, error) {
	return c.GetSubmission(ctx, fmt.Sprintf("%d", entry.ID))
}
