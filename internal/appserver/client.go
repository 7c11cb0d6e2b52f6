// Package appserver is the HTTP client for the application auth server:
// phone + SMS code login and verification code dispatch.
package appserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/chatdemo/internal/chaterr"
	"github.com/atinyakov/chatdemo/internal/i18n"
	"github.com/atinyakov/chatdemo/internal/models"
)

const maxResponseSize = 1 << 20

// Endpoints are the absolute URLs of the auth server API.
type Endpoints struct {
	// LoginURL accepts POST {"phoneNumber", "smsCode"}.
	LoginURL string
	// SMSURL is the base of POST <SMSURL>/<phone>/.
	SMSURL string
}

// remap replaces a server errorInfo containing any of substrings with the
// localized message under key.
type remap struct {
	substrings []string
	key        string
}

var loginRemaps = []remap{
	{substrings: []string{"phone number illegal"}, key: i18n.LoginPhoneIllegal},
	{substrings: []string{
		"verification code error",
		"send SMS to get mobile phone verification code",
	}, key: i18n.LoginIllegalCode},
}

var sendCodeRemaps = []remap{
	{substrings: []string{"wait a moment while trying to send"}, key: i18n.SendCodeLater},
	{substrings: []string{"exceed the limit of"}, key: i18n.SendCodeLimit},
}

// Client talks to the auth server. All failures are *chaterr.Error values:
// HTTP failures carry the status code, transport failures NetworkError.
type Client struct {
	endpoints  Endpoints
	httpClient *http.Client
	catalog    *i18n.Catalog
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCatalog sets the catalog used for localized error messages.
func WithCatalog(cat *i18n.Catalog) Option {
	return func(c *Client) { c.catalog = cat }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client for endpoints.
func New(endpoints Endpoints, opts ...Option) *Client {
	c := &Client{
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.catalog == nil {
		c.catalog = i18n.MustLoad(i18n.DefaultLocale)
	}
	return c
}

type loginRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	SMSCode     string `json:"smsCode"`
}

type loginResponse struct {
	PhoneNumber  *string `json:"phoneNumber"`
	Token        *string `json:"token"`
	ChatUserName *string `json:"chatUserName"`
}

type errorResponse struct {
	ErrorInfo *string `json:"errorInfo"`
}

// Login exchanges phone and an SMS code for a chat token.
func (c *Client) Login(ctx context.Context, phone, code string) (models.LoginResult, error) {
	body, err := json.Marshal(loginRequest{PhoneNumber: phone, SMSCode: code})
	if err != nil {
		return models.LoginResult{}, chaterr.New(chaterr.NetworkError, err.Error())
	}

	c.log.Debug("login to app server", zap.String("url", c.endpoints.LoginURL))
	status, content, err := c.post(ctx, c.endpoints.LoginURL, body)
	if err != nil {
		return models.LoginResult{}, chaterr.New(chaterr.NetworkError, err.Error())
	}
	if status != http.StatusOK {
		return models.LoginResult{}, c.serverError(status, content, loginRemaps)
	}

	c.log.Debug("login to app server succeeded", zap.ByteString("response", content))
	var resp loginResponse
	if err := json.Unmarshal(content, &resp); err != nil {
		return models.LoginResult{}, chaterr.New(chaterr.NetworkError, err.Error())
	}
	if resp.PhoneNumber == nil || resp.Token == nil || resp.ChatUserName == nil {
		return models.LoginResult{}, chaterr.New(chaterr.NetworkError, "incomplete login response")
	}
	return models.LoginResult{
		Phone:      *resp.PhoneNumber,
		Token:      *resp.Token,
		Username:   *resp.ChatUserName,
		StatusCode: status,
	}, nil
}

// SendVerificationCode asks the server to text a verification code to phone.
// An empty phone fails with InvalidParam without touching the network.
func (c *Client) SendVerificationCode(ctx context.Context, phone string) error {
	if phone == "" {
		return chaterr.New(chaterr.InvalidParam, c.catalog.String(i18n.LoginPhoneEmpty))
	}

	u := strings.TrimRight(c.endpoints.SMSURL, "/") + "/" + url.PathEscape(phone) + "/"
	c.log.Debug("request verification code", zap.String("url", u))
	status, content, err := c.post(ctx, u, nil)
	if err != nil {
		return chaterr.New(chaterr.NetworkError, err.Error())
	}
	if status != http.StatusOK {
		return c.serverError(status, content, sendCodeRemaps)
	}
	return nil
}

func (c *Client) post(ctx context.Context, u string, body []byte) (int, []byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, r)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

// serverError builds the failure for a non-200 answer. A JSON body with an
// errorInfo field is remapped or passed through; any other body is returned raw.
func (c *Client) serverError(status int, content []byte, remaps []remap) error {
	if len(content) == 0 {
		return chaterr.New(status, "")
	}

	var resp errorResponse
	if err := json.Unmarshal(content, &resp); err != nil || resp.ErrorInfo == nil {
		c.log.Debug("unparseable error body", zap.Int("status", status), zap.Error(err))
		return chaterr.New(status, string(content))
	}

	info := *resp.ErrorInfo
	for _, rm := range remaps {
		for _, s := range rm.substrings {
			if strings.Contains(info, s) {
				return chaterr.New(status, c.catalog.String(rm.key))
			}
		}
	}
	return chaterr.New(status, info)
}
