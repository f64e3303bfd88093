package portal

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	errorspkg "wodbooker-go/internal/errors"
)

var (
	viewstateCRe     = regexp.MustCompile(`id="__VIEWSTATEC"[^>]*value="([^"]*)"`)
	eventValidationRe = regexp.MustCompile(`id="__EVENTVALIDATION"[^>]*value="([^"]*)"`)
	csrfTokenRe       = regexp.MustCompile(`id="CSRFToken"[^>]*value="([^"]*)"`)

	loginWarningMarker = `class="Warning"`
)

// Login is idempotent: if the client already holds a confirmed session
// it returns immediately. Otherwise it probes the stored cookie (if
// any) and falls back to a full credential login.
func (c *Client) Login(ctx context.Context) error {
	if c.logged {
		return nil
	}

	if len(c.creds.Cookie) > 0 {
		expired, err := c.probeSession(ctx)
		if err != nil {
			return err
		}
		if !expired {
			c.logged = true
			return nil
		}
	}

	return c.loginWithCredentials(ctx)
}

// probeSession checks whether the restored cookie still authenticates
// by hitting an endpoint that 302s to the login page once the session
// has expired.
func (c *Client) probeSession(ctx context.Context) (expired bool, err error) {
	req, err := c.newRequest(ctx, http.MethodGet, portalRoot+"/account/roadtobox.aspx")
	if err != nil {
		return false, errorspkg.ErrTransientPortal.Wrap(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, errorspkg.ErrTransientPortal.Wrap(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	location := resp.Header.Get("Location")
	return resp.StatusCode == http.StatusFound && strings.Contains(location, "login"), nil
}

func (c *Client) loginWithCredentials(ctx context.Context) error {
	if c.creds.Password == "" {
		return errorspkg.ErrPasswordRequired
	}

	loginURL := portalRoot + "/account/login.aspx"

	initial, err := c.get(ctx, loginURL)
	if err != nil {
		return err
	}

	viewstatec := firstSubmatch(viewstateCRe, initial)
	eventvalidation := firstSubmatch(eventValidationRe, initial)
	csrftoken := firstSubmatch(csrfTokenRe, initial)
	if viewstatec == "" || eventvalidation == "" || csrftoken == "" {
		c.logger.Warn("portal: could not locate anti-forgery tokens in login page")
		return errorspkg.ErrUnparseableResponse
	}

	loginBody, status, err := c.postForm(ctx, loginURL, loginFormFields(viewstatec, eventvalidation, csrftoken, c.creds.Email, c.creds.Password))
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return errorspkg.ErrUnparseableResponse
	}
	if strings.Contains(loginBody, loginWarningMarker) {
		return errorspkg.ErrInvalidCredentials
	}

	viewstatecConfirm := lookupHeaderValue(loginBody, "__VIEWSTATEC")
	eventvalidationConfirm := lookupHeaderValue(loginBody, "__EVENTVALIDATION")

	_, confirmStatus, err := c.postForm(ctx, loginURL, confirmFormFields(viewstatecConfirm, eventvalidationConfirm, csrftoken))
	if err != nil {
		return err
	}
	if confirmStatus != http.StatusOK {
		return errorspkg.ErrUnparseableResponse
	}

	c.logged = true
	return nil
}

func loginFormFields(viewstatec, eventvalidation, csrftoken, email, password string) url.Values {
	v := baseFormFields(viewstatec, eventvalidation, csrftoken)
	v.Set("ctl00$ctl00$body$ctl00", "ctl00$ctl00$body$ctl00|ctl00$ctl00$body$body$CtlLogin$CtlAceptar")
	v.Set("ctl00$ctl00$body$body$CtlLogin$IoTri", "")
	v.Set("ctl00$ctl00$body$body$CtlLogin$IoTrg", "")
	v.Set("ctl00$ctl00$body$body$CtlLogin$IoTra", "")
	v.Set("ctl00$ctl00$body$body$CtlLogin$IoEmail", email)
	v.Set("ctl00$ctl00$body$body$CtlLogin$IoPassword", password)
	v.Set("ctl00$ctl00$body$body$CtlLogin$cIoUid", "")
	v.Set("ctl00$ctl00$body$body$CtlLogin$CtlAceptar", "Aceptar\n")
	return v
}

func confirmFormFields(viewstatec, eventvalidation, csrftoken string) url.Values {
	v := baseFormFields(viewstatec, eventvalidation, csrftoken)
	v.Set("ctl00$ctl00$body$ctl00", "ctl00$ctl00$body$ctl00|ctl00$ctl00$body$body$CtlConfiar$CtlSeguro")
	v.Set("ctl00$ctl00$body$body$CtlConfiar$CtlSeguro", "Recordar\n")
	return v
}

func baseFormFields(viewstatec, eventvalidation, csrftoken string) url.Values {
	v := url.Values{}
	v.Set("CSRFToken", csrftoken)
	v.Set("__EVENTTARGET", "")
	v.Set("__EVENTARGUMENT", "")
	v.Set("__VIEWSTATEC", viewstatec)
	v.Set("__VIEWSTATE", "")
	v.Set("__EVENTVALIDATION", eventvalidation)
	v.Set("__ASYNCPOST", "true")
	return v
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// lookupHeaderValue mirrors the portal's own confirmation-page layout:
// the token value follows the header name and a literal "|" delimiter,
// without a surrounding HTML attribute to anchor a regex on.
func lookupHeaderValue(text, name string) string {
	idx := strings.Index(text, name)
	if idx < 0 {
		return ""
	}
	rest := text[idx+len(name)+1:]
	if pipe := strings.Index(rest, "|"); pipe >= 0 {
		return rest[:pipe]
	}
	return rest
}

func (c *Client) get(ctx context.Context, url string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return "", errorspkg.ErrTransientPortal.Wrap(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errorspkg.ErrTransientPortal.Wrap(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errorspkg.ErrTransientPortal.Wrap(err)
	}
	return string(body), nil
}

func (c *Client) postForm(ctx context.Context, rawURL string, form url.Values) (body string, status int, err error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if reqErr != nil {
		return "", 0, errorspkg.ErrTransientPortal.Wrap(reqErr)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return "", 0, errorspkg.ErrTransientPortal.Wrap(doErr)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return "", 0, errorspkg.ErrTransientPortal.Wrap(readErr)
	}

	return string(data), resp.StatusCode, nil
}
