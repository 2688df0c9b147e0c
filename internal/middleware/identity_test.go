package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trade-chat-service/internal/clients"
	"trade-chat-service/internal/mocks"
)

func setupIdentityRouter(users clients.UserResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", IdentityMiddleware(users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(UserIDKey)})
	})
	return r
}

func TestIdentityMiddlewareMissingHeader(t *testing.T) {
	router := setupIdentityRouter(new(mocks.UserResolverMock))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentityMiddlewareUnknownUser(t *testing.T) {
	users := new(mocks.UserResolverMock)
	users.On("ResolveUser", mock.Anything, "ghost").
		Return(clients.User{}, clients.ErrUserNotFound).Once()
	router := setupIdentityRouter(users)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "ghost")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	users.AssertExpectations(t)
}

func TestIdentityMiddlewareResolverDown(t *testing.T) {
	users := new(mocks.UserResolverMock)
	users.On("ResolveUser", mock.Anything, "buyer-1").
		Return(clients.User{}, assert.AnError).Once()
	router := setupIdentityRouter(users)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "buyer-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestIdentityMiddlewareResolvedUser(t *testing.T) {
	users := new(mocks.UserResolverMock)
	users.On("ResolveUser", mock.Anything, "buyer-1").
		Return(clients.User{ID: "buyer-1", DisplayName: "Alice"}, nil).Once()
	router := setupIdentityRouter(users)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "buyer-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}
