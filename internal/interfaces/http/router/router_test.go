package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("finance", "/finance")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group)
	r.Setup()

	req := httptest.NewRequest("GET", "/api/v1/finance/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterUseAppliesMiddleware(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	r.Use(func(c *gin.Context) {
		c.Header("X-Probe", "hit")
		c.Next()
	})

	group := NewDomainGroup("finance", "")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	req := httptest.NewRequest("GET", "/api/v1/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hit", w.Header().Get("X-Probe"))
}

func TestDomainGroupCollectsRoutes(t *testing.T) {
	group := NewDomainGroup("finance", "/finance")
	group.GET("/a", func(c *gin.Context) {}).
		POST("/b", func(c *gin.Context) {}).
		PUT("/c", func(c *gin.Context) {}).
		DELETE("/d", func(c *gin.Context) {})

	assert.Equal(t, "finance", group.Name())
	assert.Len(t, group.routes, 4)
	assert.Equal(t, "GET", group.routes[0].method)
	assert.Equal(t, "POST", group.routes[1].method)
}
