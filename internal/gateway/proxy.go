package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"carebase.org/internal/obs"
	"carebase.org/internal/token"
)

const (
	authHeader   = "Authorization"
	bearer       = "Bearer "
	userIDHeader = "X-User-Id"
)

// publicRoutes are forwarded without a token. Matching is exact on method
// and path: a GET to the login path is still protected.
var publicRoutes = map[string]struct{}{
	http.MethodPost + " /api/auth/login":    {},
	http.MethodPost + " /api/auth/register": {},
}

// Gateway is the edge reverse proxy. It checks the bearer token's signature
// and expiry and stamps the subject onto the forwarded request; it never
// consults the user store, so a token for a since-deleted user still passes
// the edge and is resolved downstream.
type Gateway struct {
	codec    *token.Codec
	proxy    *httputil.ReverseProxy
	upstream *url.URL
}

// New constructs the gateway for the given upstream.
func New(codec *token.Codec, upstream *url.URL) (*Gateway, error) {
	if codec == nil {
		return nil, errors.New("gateway: token codec is required")
	}
	if upstream == nil {
		return nil, errors.New("gateway: upstream url is required")
	}
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		l := obs.Logger()
		l.Error().Err(err).Str("path", r.URL.Path).Msg("upstream error")
		writeJSONError(w, http.StatusBadGateway, "upstream unavailable")
	}
	return &Gateway{codec: codec, proxy: proxy, upstream: upstream}, nil
}

// ServeHTTP applies the edge filter and forwards. Health and metrics
// endpoints are answered locally and never reach the upstream.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/healthz", "/readyz":
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		return
	case "/metrics":
		obs.Handler().ServeHTTP(w, r)
		return
	}

	if _, ok := publicRoutes[r.Method+" "+r.URL.Path]; ok {
		g.forward(w, r, "")
		return
	}

	raw, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, err.Error())
		return
	}
	subject, err := g.codec.Validate(raw)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	g.forward(w, r, subject)
}

// forward clones the request so the filter never mutates the inbound one,
// then hands the clone to the reverse proxy.
func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, subject string) {
	out := r.Clone(r.Context())
	out.Header.Del(userIDHeader)
	if subject != "" {
		out.Header.Set(userIDHeader, subject)
	}
	g.proxy.ServeHTTP(w, out)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	tok := strings.TrimSpace(header[len(bearer):])
	if tok == "" {
		return "", errors.New("missing bearer token")
	}
	return tok, nil
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
