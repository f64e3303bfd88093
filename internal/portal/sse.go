package portal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"wodbooker-go/internal/cache/boxcache"
	"wodbooker-go/internal/clock"
	errorspkg "wodbooker-go/internal/errors"
)

var boxInitAjaxRe = regexp.MustCompile(`InitAjax\('([^']*)',\s?'([^']*)'`)

// WaitOutcome is the result of a WaitForEvent call.
type WaitOutcome int

const (
	// WaitMatched means one of the requested events arrived.
	WaitMatched WaitOutcome = iota
	// WaitDeadline means the deadline elapsed with no matching event.
	WaitDeadline
)

const sseRecordSeparator = ''

// boxMetadata returns the short box name and SSE hub base URL for
// boxURL, scraping the box home page on a cache miss.
func (c *Client) boxMetadata(ctx context.Context, boxURL string) (shortName, sseBase string, err error) {
	if c.boxes != nil {
		if m, ok := c.boxes.GetMetadata(ctx, boxURL); ok {
			return m.ShortName, m.SSEBase, nil
		}
	}

	req, err := c.newRequest(ctx, http.MethodGet, boxURL+"/user/")
	if err != nil {
		return "", "", errorspkg.ErrTransientPortal.Wrap(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", errorspkg.ErrTransientPortal.Wrap(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", errorspkg.ErrTransientPortal.Wrap(err)
	}

	m := boxInitAjaxRe.FindStringSubmatch(string(body))
	if len(m) < 3 {
		return "", "", errorspkg.ErrInvalidBox
	}
	shortName, sseBase = m[1], m[2]

	if c.boxes != nil {
		c.boxes.SetMetadata(ctx, boxURL, boxcache.Metadata{ShortName: shortName, SSEBase: sseBase})
	}
	return shortName, sseBase, nil
}

// WaitForEvent blocks until a message whose target is in eventNames
// arrives on the box's booking hub, or deadline passes. It reconnects
// the SSE stream whenever the portal drops it (every tick is ~60s).
func (c *Client) WaitForEvent(ctx context.Context, boxURL string, classDate time.Time, eventNames map[string]struct{}, deadline time.Time) (WaitOutcome, error) {
	if err := c.Login(ctx); err != nil {
		return WaitDeadline, err
	}

	shortName, sseBase, err := c.boxMetadata(ctx, boxURL)
	if err != nil {
		return WaitDeadline, err
	}
	epoch := clock.UTCMidnightEpoch(classDate)

	for {
		if time.Now().In(clock.Location).After(deadline) {
			return WaitDeadline, nil
		}

		matched, err := c.ssePoll(ctx, sseBase, shortName, epoch, eventNames, deadline)
		if err != nil {
			return WaitDeadline, err
		}
		if matched {
			return WaitMatched, nil
		}
	}
}

// ssePoll opens one SSE connection and reads frames until a matching
// event arrives, the deadline passes, or the connection ends (in which
// case the caller reconnects).
func (c *Client) ssePoll(ctx context.Context, sseBase, shortName string, epoch int64, eventNames map[string]struct{}, deadline time.Time) (bool, error) {
	token, err := c.negotiate(ctx, sseBase)
	if err != nil {
		return false, err
	}

	streamReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/bookinghub?id=%s", sseBase, token), nil)
	if err != nil {
		return false, errorspkg.ErrTransientPortal.Wrap(err)
	}
	streamReq.Header.Set("User-Agent", userAgent)
	streamReq.Header.Set("Accept", "text/event-stream")

	streamClient := &http.Client{Jar: c.httpClient.Jar, Timeout: sseTimeout}
	resp, err := streamClient.Do(streamReq)
	if err != nil {
		return false, errorspkg.ErrTransientPortal.Wrap(err)
	}
	defer resp.Body.Close()

	if err := c.sendSSECommand(ctx, sseBase, token, map[string]any{"protocol": "json", "version": 1}); err != nil {
		return false, err
	}
	if err := c.sendSSECommand(ctx, sseBase, token, map[string]any{
		"arguments":    []string{shortName, fmt.Sprintf("%d", epoch)},
		"invocationId": "0",
		"target":       "JoinRoom",
		"type":         1,
	}); err != nil {
		return false, err
	}

	reader := bufio.NewReader(resp.Body)
	for {
		if time.Now().In(clock.Location).After(deadline) {
			return false, nil
		}

		line, readErr := reader.ReadString(sseRecordSeparator)
		if readErr != nil {
			if readErr == io.EOF {
				return false, nil
			}
			c.logger.Warn("portal: sse stream read error, reconnecting", zap.Error(readErr))
			return false, nil
		}

		frame := strings.TrimRight(line, string(sseRecordSeparator))
		frame = strings.TrimPrefix(frame, "data:")
		frame = strings.TrimSpace(frame)
		if frame == "" {
			continue
		}

		var msg map[string]any
		if err := json.Unmarshal([]byte(frame), &msg); err != nil {
			continue
		}
		target, _ := msg["target"].(string)
		if target == "" {
			continue
		}
		if _, want := eventNames[target]; want {
			return true, nil
		}
	}
}

func (c *Client) negotiate(ctx context.Context, sseBase string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sseBase+"/bookinghub/negotiate?negotiateVersion=1", nil)
	if err != nil {
		return "", errorspkg.ErrTransientPortal.Wrap(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errorspkg.ErrTransientPortal.Wrap(err)
	}
	defer resp.Body.Close()

	var body struct {
		ConnectionToken string `json:"connectionToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errorspkg.ErrUnparseableResponse.Wrap(err)
	}
	return body.ConnectionToken, nil
}

func (c *Client) sendSSECommand(ctx context.Context, sseBase, token string, command map[string]any) error {
	payload, err := json.Marshal(command)
	if err != nil {
		return err
	}
	payload = append(payload, sseRecordSeparator)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/bookinghub?id=%s", sseBase, token), strings.NewReader(string(payload)))
	if err != nil {
		return errorspkg.ErrTransientPortal.Wrap(err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errorspkg.ErrTransientPortal.Wrap(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}
