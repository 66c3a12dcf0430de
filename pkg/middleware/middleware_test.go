package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"placesmap/pkg/whop"
)

type fakeVerifier struct {
	userID string
	err    error
}

func (f fakeVerifier) VerifyRequest(r *http.Request) (string, error) {
	return f.userID, f.err
}

type fakeChecker struct {
	level whop.AccessLevel
	err   error
	calls int
}

func (f *fakeChecker) CheckAccess(ctx context.Context, userID, experienceID string) (whop.AccessLevel, error) {
	f.calls++
	return f.level, f.err
}

func newRouter(verifier UserTokenVerifier, checker AccessChecker, required whop.AccessLevel) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceIDMiddleware())
	r.GET("/experiences/:experienceId",
		WhopAuthMiddleware(verifier),
		AccessMiddleware(checker, required),
		func(c *gin.Context) {
			c.String(http.StatusOK, UserID(c)+" "+string(AccessLevel(c)))
		})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		verifier UserTokenVerifier
		checker  *fakeChecker
		required whop.AccessLevel
		want     int
		body     string
	}{
		{"no verifier", nil, &fakeChecker{level: whop.AccessAdmin}, whop.AccessAdmin, http.StatusUnauthorized, ""},
		{"bad token", fakeVerifier{err: whop.ErrInvalidToken}, &fakeChecker{level: whop.AccessAdmin}, whop.AccessAdmin, http.StatusUnauthorized, ""},
		{"admin", fakeVerifier{userID: "user_1"}, &fakeChecker{level: whop.AccessAdmin}, whop.AccessAdmin, http.StatusOK, "user_1 admin"},
		{"customer on admin route", fakeVerifier{userID: "user_1"}, &fakeChecker{level: whop.AccessCustomer}, whop.AccessAdmin, http.StatusForbidden, ""},
		{"customer on read route", fakeVerifier{userID: "user_1"}, &fakeChecker{level: whop.AccessCustomer}, whop.AccessCustomer, http.StatusOK, "user_1 customer"},
		{"no access", fakeVerifier{userID: "user_1"}, &fakeChecker{level: whop.AccessNone}, whop.AccessCustomer, http.StatusForbidden, ""},
		{"whop down", fakeVerifier{userID: "user_1"}, &fakeChecker{err: errors.New("boom")}, whop.AccessCustomer, http.StatusBadGateway, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(tt.verifier, tt.checker, tt.required)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/experiences/exp_1", nil)
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.body)
			}
			if w.Header().Get(TraceIDHeader) == "" {
				t.Error("missing trace id header")
			}
		})
	}
}

func TestAuthMiddleware_SkipsAccessCheckWithoutIdentity(t *testing.T) {
	checker := &fakeChecker{level: whop.AccessAdmin}
	r := newRouter(fakeVerifier{err: whop.ErrInvalidToken}, checker, whop.AccessAdmin)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/experiences/exp_1", nil))

	if checker.calls != 0 {
		t.Errorf("access checked %d times for an anonymous request", checker.calls)
	}
}

func TestTraceIDMiddleware_KeepsIncomingID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("trace_id")) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "abc-123")
	r.ServeHTTP(w, req)

	if w.Body.String() != "abc-123" || w.Header().Get(TraceIDHeader) != "abc-123" {
		t.Errorf("trace id = %q / %q", w.Body.String(), w.Header().Get(TraceIDHeader))
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware("https://a.example, https://b.example"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://b.example")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "https://b.example" {
		t.Errorf("preflight = %d %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin was allowed")
	}
}
