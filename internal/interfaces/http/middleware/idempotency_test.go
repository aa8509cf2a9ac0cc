package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendfleet/backend/internal/domain/shared"
	"github.com/vendfleet/backend/internal/infrastructure/cache"
)

type failingStore struct{ calls atomic.Int32 }

func (s *failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	s.calls.Add(1)
	return false, errors.New("store down")
}
func (s *failingStore) Forget(context.Context, string) error { return nil }
func (s *failingStore) Close() error                         { return nil }

func withCompany(companyID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if companyID != uuid.Nil {
			c.Set(JWTCompanyIDKey, companyID)
		}
		c.Next()
	}
}

func idempotencyRouter(companyID uuid.UUID, store shared.IdempotencyStore, status *atomic.Int32) *gin.Engine {
	router := gin.New()
	router.Use(withCompany(companyID))
	router.Use(Idempotency(store, time.Minute))
	router.POST("/commit", func(c *gin.Context) {
		c.Status(int(status.Load()))
	})
	return router
}

func postCommit(router *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/commit", nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_RejectsRepeat(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(0)
	defer store.Close()
	var status atomic.Int32
	status.Store(http.StatusOK)
	router := idempotencyRouter(uuid.New(), store, &status)

	assert.Equal(t, http.StatusOK, postCommit(router, "k-1").Code)

	w := postCommit(router, "k-1")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_DUPLICATE_REQUEST")

	assert.Equal(t, http.StatusOK, postCommit(router, "k-2").Code)
}

func TestIdempotency_WithoutHeader(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(0)
	defer store.Close()
	var status atomic.Int32
	status.Store(http.StatusOK)
	router := idempotencyRouter(uuid.New(), store, &status)

	assert.Equal(t, http.StatusOK, postCommit(router, "").Code)
	assert.Equal(t, http.StatusOK, postCommit(router, "").Code)
	assert.Zero(t, store.Size())
}

func TestIdempotency_KeysScopedPerCompany(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(0)
	defer store.Close()
	var status atomic.Int32
	status.Store(http.StatusOK)

	assert.Equal(t, http.StatusOK, postCommit(idempotencyRouter(uuid.New(), store, &status), "shared").Code)
	assert.Equal(t, http.StatusOK, postCommit(idempotencyRouter(uuid.New(), store, &status), "shared").Code)
}

func TestIdempotency_ReleasesKeyOnServerError(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(0)
	defer store.Close()
	var status atomic.Int32
	status.Store(http.StatusInternalServerError)
	router := idempotencyRouter(uuid.New(), store, &status)

	assert.Equal(t, http.StatusInternalServerError, postCommit(router, "retry-me").Code)

	status.Store(http.StatusOK)
	assert.Equal(t, http.StatusOK, postCommit(router, "retry-me").Code)
	assert.Equal(t, http.StatusConflict, postCommit(router, "retry-me").Code)
}

func TestIdempotency_ClientErrorKeepsKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(0)
	defer store.Close()
	var status atomic.Int32
	status.Store(http.StatusNotFound)
	router := idempotencyRouter(uuid.New(), store, &status)

	assert.Equal(t, http.StatusNotFound, postCommit(router, "k").Code)
	assert.Equal(t, http.StatusConflict, postCommit(router, "k").Code)
}

func TestIdempotency_InvalidRequests(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(0)
	defer store.Close()
	var status atomic.Int32
	status.Store(http.StatusOK)

	w := postCommit(idempotencyRouter(uuid.New(), store, &status), strings.Repeat("k", 129))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postCommit(idempotencyRouter(uuid.Nil, store, &status), "k")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, store.Size())
}

func TestIdempotency_StoreFailureLetsRequestThrough(t *testing.T) {
	store := &failingStore{}
	var status atomic.Int32
	status.Store(http.StatusOK)
	router := idempotencyRouter(uuid.New(), store, &status)

	assert.Equal(t, http.StatusOK, postCommit(router, "k").Code)
	assert.Equal(t, http.StatusOK, postCommit(router, "k").Code)
	assert.Equal(t, int32(2), store.calls.Load())
}
