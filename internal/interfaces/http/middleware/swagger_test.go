package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cablenet/billing/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveSwagger(cfg config.SwaggerConfig, authenticate gin.HandlerFunc, remoteAddr string, header map[string]string) int {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, authenticate), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestSwaggerProtection_Disabled(t *testing.T) {
	code := serveSwagger(config.SwaggerConfig{Enabled: false}, nil, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSwaggerProtection_Open(t *testing.T) {
	code := serveSwagger(config.SwaggerConfig{Enabled: true}, nil, "203.0.113.9:1234", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestSwaggerProtection_AllowList(t *testing.T) {
	cfg := config.SwaggerConfig{
		Enabled:    true,
		AllowedIPs: []string{"127.0.0.1", "10.0.0.0/8", "not-an-ip"},
	}

	tests := []struct {
		remote string
		want   int
	}{
		{"127.0.0.1:5000", http.StatusOK},
		{"10.20.30.40:5000", http.StatusOK},
		{"192.168.1.10:5000", http.StatusForbidden},
		{"[::1]:5000", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			assert.Equal(t, tt.want, serveSwagger(cfg, nil, tt.remote, nil))
		})
	}
}

func TestSwaggerProtection_RequireAuth(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(t, jwtService, "operator")
	authenticate := JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{JWTService: jwtService})
	cfg := config.SwaggerConfig{Enabled: true, RequireAuth: true}

	assert.Equal(t, http.StatusUnauthorized, serveSwagger(cfg, authenticate, "127.0.0.1:1", nil))
	assert.Equal(t, http.StatusOK, serveSwagger(cfg, authenticate, "127.0.0.1:1",
		map[string]string{AuthHeaderKey: BearerPrefix + pair.AccessToken}))
}

func TestSwaggerProtection_AllowListCheckedBeforeAuth(t *testing.T) {
	called := false
	authenticate := func(c *gin.Context) { called = true }
	cfg := config.SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: []string{"127.0.0.1"}}

	code := serveSwagger(cfg, authenticate, "198.51.100.7:1", nil)

	assert.Equal(t, http.StatusForbidden, code)
	assert.False(t, called)
}

func TestIsIPAllowed(t *testing.T) {
	allowed := parseAllowList([]string{"192.168.1.0/24", "2001:db8::/32", " 172.16.0.5 "})

	assert.True(t, isIPAllowed("192.168.1.77", allowed))
	assert.True(t, isIPAllowed("::ffff:192.168.1.77", allowed))
	assert.True(t, isIPAllowed("2001:db8::1", allowed))
	assert.True(t, isIPAllowed("172.16.0.5", allowed))
	assert.False(t, isIPAllowed("172.16.0.6", allowed))
	assert.False(t, isIPAllowed("", allowed))
	assert.False(t, isIPAllowed("garbage", allowed))
}
