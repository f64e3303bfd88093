// Package portal implements the stateful HTTP/SSE client for the
// third-party booking portal: login handshake, daily schedule loading,
// seat claiming, and the live-event SSE stream. One Client is bound to
// one user's session and is not safe for concurrent book() calls
// against the same box (the caller serializes through the rate-limit
// coordinator).
package portal

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"time"

	"go.uber.org/zap"

	"wodbooker-go/internal/cache/boxcache"
)

const (
	requestTimeout = 10 * time.Second
	sseTimeout     = 60 * time.Second

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	portalRoot = "https://wodbuster.com"
)

// Credentials identifies a portal account. Cookie is an opaque blob
// previously returned by Client.Cookies; Password may be empty if a
// valid Cookie is supplied.
type Credentials struct {
	Email    string
	Password string
	Cookie   []byte
}

// Client is a per-user session against the portal.
type Client struct {
	httpClient *http.Client
	jar        *cookiejar.Jar
	boxes      *boxcache.Cache
	logger     *zap.Logger

	creds  Credentials
	logged bool
}

// New creates a Client for the given credentials. The boxes cache may
// be nil, in which case box metadata is re-scraped every call.
func New(creds Credentials, boxes *boxcache.Cache, logger *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: requestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		jar:    jar,
		boxes:  boxes,
		creds:  creds,
		logger: logger,
	}

	if len(creds.Cookie) > 0 {
		if err := restoreCookies(jar, creds.Cookie); err != nil {
			logger.Warn("portal: stored cookie could not be restored, falling back to fresh login", zap.Error(err))
		}
	}

	return c, nil
}

// Cookies serializes the current session's cookie jar so it can be
// persisted on the User row and restored by a future Client.
func (c *Client) Cookies() ([]byte, error) {
	return serializeCookies(c.jar, portalRootURL())
}

func (c *Client) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}
