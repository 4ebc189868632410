package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/settlement/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
)

func TestRequestBaggageCarriesIDs(t *testing.T) {
	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithStoreID(ctx, "42")

	bag := baggage.FromContext(withRequestBaggage(ctx))
	assert.Equal(t, "req-1", bag.Member("request_id").Value())
	assert.Equal(t, "42", bag.Member("store_id").Value())

	empty := baggage.FromContext(withRequestBaggage(context.Background()))
	assert.Equal(t, 0, empty.Len())
}

func TestGinMiddlewareTagsSettlementRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var attrs []attribute.KeyValue
	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := obscontext.WithStoreID(c.Request.Context(), "42")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	r.Use(GinMiddleware())
	r.GET("/api/v1/settlements/:id", func(c *gin.Context) {
		attrs = requestAttributes(c, c.FullPath(), http.StatusOK)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/settlements/123", nil)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	values := map[attribute.Key]string{}
	for _, attr := range attrs {
		values[attr.Key] = attr.Value.Emit()
	}
	assert.Equal(t, "/api/v1/settlements/:id", values["http.route"])
	assert.Equal(t, "42", values["settlement.store_id"])
	assert.Equal(t, "123", values["settlement.id"])
}
