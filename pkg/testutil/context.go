package testutil

import (
	"net/http"
	"net/http/httptest"
)

// WithReferer adds one Referer header per value, in order.
func WithReferer(req *http.Request, referers ...string) *http.Request {
	for _, ref := range referers {
		req.Header.Add("Referer", ref)
	}
	return req
}

// WithCookiesFrom copies the cookies set on a previous response onto req,
// the way a browser would on its next request.
func WithCookiesFrom(req *http.Request, rr *httptest.ResponseRecorder) *http.Request {
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}
