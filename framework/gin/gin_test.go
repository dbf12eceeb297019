package ginauth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jose "gopkg.in/go-jose/go-jose.v2"
	"gopkg.in/go-jose/go-jose.v2/jwt"

	"github.com/veltio/go-jwks-auth/internal/testkeys"
	"github.com/veltio/go-jwks-auth/jwks"
	"github.com/veltio/go-jwks-auth/verifier"
)

func newVerifier(t *testing.T) (*verifier.Verifier, func(jwt.Claims) string) {
	t.Helper()

	private := testkeys.RSAKey(t)
	set, err := jwks.ParseSet(testkeys.JWKS(t, testkeys.PublicKey{KID: "k1", Key: &private.PublicKey}))
	require.NoError(t, err)

	v, err := verifier.New(verifier.WithKeySource(jwks.NewStatic(set, nil)))
	require.NoError(t, err)

	sign := func(claims jwt.Claims) string {
		return testkeys.Sign(t, private, jose.RS256, "k1", claims, nil)
	}
	return v, sign
}

func TestNewGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	v, sign := newVerifier(t)

	validToken := sign(jwt.Claims{
		Subject: "user-1",
		Expiry:  jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})

	serve := func(t *testing.T, middleware gin.HandlerFunc, authorization string, handler gin.HandlerFunc) *httptest.ResponseRecorder {
		t.Helper()
		router := gin.New()
		router.GET("/things", middleware, handler)

		request := httptest.NewRequest(http.MethodGet, "/things", nil)
		if authorization != "" {
			request.Header.Set("Authorization", authorization)
		}
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		return recorder
	}

	t.Run("stores claims under the default key", func(t *testing.T) {
		middleware, err := NewGinMiddleware(v)
		require.NoError(t, err)

		var sawClaims *verifier.Claims
		recorder := serve(t, middleware, "Bearer "+validToken, func(c *gin.Context) {
			claims, err := GetClaims(c, "")
			require.NoError(t, err)
			sawClaims = claims
			c.String(http.StatusOK, "ok")
		})

		assert.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, sawClaims)
		assert.Equal(t, "user-1", sawClaims.Subject)
	})

	t.Run("stores claims under a custom key", func(t *testing.T) {
		middleware, err := NewGinMiddleware(v, WithContextKey("auth"))
		require.NoError(t, err)

		recorder := serve(t, middleware, "Bearer "+validToken, func(c *gin.Context) {
			claims, err := GetClaims(c, "auth")
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.Subject)
			c.Status(http.StatusNoContent)
		})

		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})

	t.Run("rejects an invalid token with 401", func(t *testing.T) {
		middleware, err := NewGinMiddleware(v)
		require.NoError(t, err)

		recorder := serve(t, middleware, "Bearer not.a.token", func(c *gin.Context) {
			t.Fatal("handler must not run")
		})

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.JSONEq(t, `{"error": "invalid token"}`, recorder.Body.String())
	})

	t.Run("rejects a missing bearer with 400", func(t *testing.T) {
		middleware, err := NewGinMiddleware(v)
		require.NoError(t, err)

		recorder := serve(t, middleware, "", func(c *gin.Context) {
			t.Fatal("handler must not run")
		})

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("uses a custom error handler", func(t *testing.T) {
		middleware, err := NewGinMiddleware(v, WithErrorHandler(func(c *gin.Context, err error) {
			c.AbortWithStatusJSON(http.StatusTeapot, gin.H{"error": "nope"})
		}))
		require.NoError(t, err)

		recorder := serve(t, middleware, "Bearer not.a.token", func(c *gin.Context) {
			t.Fatal("handler must not run")
		})

		assert.Equal(t, http.StatusTeapot, recorder.Code)
	})

	t.Run("uses a custom token extractor", func(t *testing.T) {
		middleware, err := NewGinMiddleware(v, WithTokenExtractor(func(r *http.Request) (string, error) {
			return r.URL.Query().Get("access_token"), nil
		}))
		require.NoError(t, err)

		router := gin.New()
		router.GET("/things", middleware, func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		request := httptest.NewRequest(http.MethodGet, "/things?access_token="+validToken, nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})

	t.Run("requires a verifier", func(t *testing.T) {
		_, err := NewGinMiddleware(nil)
		require.Error(t, err)
	})
}

func TestGetClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("missing claims", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		_, err := GetClaims(c, "")
		assert.ErrorIs(t, err, ErrMissingClaims)
	})

	t.Run("wrong claims type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(DefaultClaimsKey, "not claims")
		_, err := GetClaims(c, "")
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})
}
