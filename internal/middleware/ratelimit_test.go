package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimitBlocksWithinWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hits := 0
	router := gin.New()
	router.POST("/rebuild", RateLimit(10*time.Second), func(c *gin.Context) {
		hits++
		c.String(200, "ok")
	})

	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, httptest.NewRequest("POST", "/rebuild", nil))
	require.Equal(t, 1, hits)
	require.Equal(t, "ok", w1.Body.String())

	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, httptest.NewRequest("POST", "/rebuild", nil))
	require.Equal(t, 1, hits)
	require.Contains(t, w2.Body.String(), "Too Many Requests")
}

func TestRateLimitDisabledWithZeroWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hits := 0
	router := gin.New()
	router.POST("/rebuild", RateLimit(0), func(c *gin.Context) {
		hits++
		c.String(200, "ok")
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/rebuild", nil))
	}
	require.Equal(t, 3, hits)
}
