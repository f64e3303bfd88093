package portal

import (
	"bytes"
	"encoding/gob"
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

func portalRootURL() *url.URL {
	u, _ := url.Parse(portalRoot)
	return u
}

// gobCookie mirrors the exported fields of http.Cookie that matter for
// session persistence; http.Cookie itself is not gob-encodable as-is
// because of its unexported fields on some platforms, so cookies are
// flattened to this shape before being stored as the User's opaque
// cookie blob.
type gobCookie struct {
	Name, Value, Path, Domain string
	Expires                   int64
	Secure, HTTPOnly          bool
}

func serializeCookies(jar *cookiejar.Jar, base *url.URL) ([]byte, error) {
	cookies := jar.Cookies(base)
	flat := make([]gobCookie, 0, len(cookies))
	for _, ck := range cookies {
		flat = append(flat, gobCookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Path:     ck.Path,
			Domain:   ck.Domain,
			Expires:  ck.Expires.Unix(),
			Secure:   ck.Secure,
			HTTPOnly: ck.HttpOnly,
		})
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(flat); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func restoreCookies(jar *cookiejar.Jar, blob []byte) error {
	var flat []gobCookie
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&flat); err != nil {
		return err
	}

	cookies := make([]*http.Cookie, 0, len(flat))
	for _, f := range flat {
		cookies = append(cookies, &http.Cookie{
			Name:     f.Name,
			Value:    f.Value,
			Path:     f.Path,
			Domain:   f.Domain,
			Secure:   f.Secure,
			HttpOnly: f.HTTPOnly,
		})
	}
	jar.SetCookies(portalRootURL(), cookies)
	return nil
}
