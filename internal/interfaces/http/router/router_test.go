package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/orderdesk/backend/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(func(c *gin.Context) {
		c.Header("X-API", "1")
		c.Next()
	})

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group)
	r.Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "1", w.Header().Get("X-API"))
}

func TestDomainGroupMiddleware(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("guarded", "/guarded").
		Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }).
		POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, "guarded", group.Name())
	assert.Equal(t, "/guarded", group.Prefix())

	NewRouter(engine).Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/guarded/x", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrderRoutes(t *testing.T) {
	engine := gin.New()
	options := handler.NewCarrierOptionsHandler(nil)
	NewRouter(engine).
		Register(OrderRoutes(handler.NewOrderSyncHandler(nil), options, handler.NewLabelHandler(nil))).
		Register(CarrierRoutes(options)).
		Setup()

	want := map[string]bool{
		"POST /api/v1/orders/sync":               true,
		"POST /api/v1/orders/:id/resync":         true,
		"PATCH /api/v1/orders/:id/fedex-options": true,
		"POST /api/v1/orders/:id/generate-label": true,
		"GET /api/v1/fedex/options":              true,
	}
	for _, ri := range engine.Routes() {
		delete(want, ri.Method+" "+ri.Path)
	}
	assert.Empty(t, want)
}
