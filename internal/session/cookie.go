package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "relay_sid"

	cookieKeyInfo = "relay session cookie v1"
)

// CookieOptions controls the attributes of issued cookies.
type CookieOptions struct {
	Domain string
	Path   string
	Secure bool
	MaxAge time.Duration
}

// CookieCodec signs and verifies session ids carried in cookies.
type CookieCodec struct {
	key  []byte
	opts CookieOptions
}

// NewCookieCodec derives the signing key from secret with HKDF-SHA256.
func NewCookieCodec(secret string, opts CookieOptions) (*CookieCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("cookie secret is empty")
	}
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(cookieKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive cookie key: %w", err)
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &CookieCodec{key: key, opts: opts}, nil
}

// Encode returns "<id>.<signature>".
func (c *CookieCodec) Encode(id string) string {
	return id + "." + c.sign(id)
}

// Decode verifies value and returns the session id it carries.
func (c *CookieCodec) Decode(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(id))) {
		return "", false
	}
	return id, true
}

// Cookie builds the HttpOnly session cookie for id.
func (c *CookieCodec) Cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    c.Encode(id),
		Domain:   c.opts.Domain,
		Path:     c.opts.Path,
		MaxAge:   int(c.opts.MaxAge.Seconds()),
		Secure:   c.opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ID extracts a verified session id from the request cookie.
func (c *CookieCodec) ID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	return c.Decode(cookie.Value)
}

func (c *CookieCodec) sign(id string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
