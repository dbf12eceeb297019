package jwksauth

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jose "gopkg.in/go-jose/go-jose.v2"
	"gopkg.in/go-jose/go-jose.v2/jwt"

	"github.com/veltio/go-jwks-auth/internal/testkeys"
	"github.com/veltio/go-jwks-auth/jwks"
	"github.com/veltio/go-jwks-auth/verifier"
)

// recordingMetrics captures emitted counters for assertions.
type recordingMetrics struct {
	mu       sync.Mutex
	counters map[string]float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counters: map[string]float64{}}
}

func (m *recordingMetrics) IncCounter(name string, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name+"/"+tags["outcome"]]++
}

func (m *recordingMetrics) ObserveHistogram(name string, value float64, tags map[string]string) {}
func (m *recordingMetrics) SetGauge(name string, value float64, tags map[string]string)         {}

func (m *recordingMetrics) counter(key string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

// testStack wires a JWKS server, a cached key source and a verifier the way
// a production caller would.
type testStack struct {
	key      *testRSA
	server   *httptest.Server
	verifier *verifier.Verifier
}

type testRSA struct {
	private any
	kid     string
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	private := testkeys.RSAKey(t)
	body := testkeys.JWKS(t, testkeys.PublicKey{KID: "k1", Key: &private.PublicKey})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(server.Close)

	source, err := jwks.NewCached(
		jwks.WithKeySetURI(server.URL),
		jwks.WithCacheTTL(time.Minute),
		jwks.WithValidationAdjuster(jwks.IdentityAdjuster),
		jwks.WithFetcher(jwks.NewHTTPFetcher(server.Client())),
	)
	require.NoError(t, err)

	v, err := verifier.New(verifier.WithKeySource(source))
	require.NoError(t, err)

	return &testStack{
		key:      &testRSA{private: private, kid: "k1"},
		server:   server,
		verifier: v,
	}
}

func (s *testStack) sign(t *testing.T, claims jwt.Claims, custom map[string]any) string {
	t.Helper()
	return testkeys.Sign(t, s.key.private, jose.RS256, s.key.kid, claims, custom)
}

func okHandler(t *testing.T, sawClaims **verifier.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if HasClaims(r.Context()) {
			claims, err := GetClaims[*verifier.Claims](r.Context())
			require.NoError(t, err)
			*sawClaims = claims
		}
		w.Write([]byte("ok"))
	})
}

func TestNew_Validation(t *testing.T) {
	stack := newTestStack(t)

	testCases := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "missing verifier", opts: nil, wantErr: ErrVerifierNil},
		{name: "nil verifier", opts: []Option{WithVerifier(nil)}, wantErr: ErrVerifierNil},
		{
			name:    "nil error handler",
			opts:    []Option{WithVerifier(stack.verifier), WithErrorHandler(nil)},
			wantErr: ErrErrorHandlerNil,
		},
		{
			name:    "nil token extractor",
			opts:    []Option{WithVerifier(stack.verifier), WithTokenExtractor(nil)},
			wantErr: ErrTokenExtractorNil,
		},
		{
			name:    "empty exclusion list",
			opts:    []Option{WithVerifier(stack.verifier), WithExclusionURLs(nil)},
			wantErr: ErrExclusionURLsEmpty,
		},
		{
			name:    "nil logger",
			opts:    []Option{WithVerifier(stack.verifier), WithLogger(nil)},
			wantErr: ErrLoggerNil,
		},
		{
			name:    "nil metrics",
			opts:    []Option{WithVerifier(stack.verifier), WithMetrics(nil)},
			wantErr: ErrMetricsNil,
		},
		{
			name:    "nil tracer",
			opts:    []Option{WithVerifier(stack.verifier), WithTracer(nil)},
			wantErr: ErrTracerNil,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := New(testCase.opts...)
			assert.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func TestCheckJWT(t *testing.T) {
	stack := newTestStack(t)

	validToken := stack.sign(t, jwt.Claims{
		Subject: "user-1",
		Expiry:  jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}, map[string]any{"scope": "read:things"})

	t.Run("accepts a valid token and attaches claims", func(t *testing.T) {
		metrics := newRecordingMetrics()
		m, err := New(WithVerifier(stack.verifier), WithMetrics(metrics))
		require.NoError(t, err)

		var sawClaims *verifier.Claims
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/things", nil)
		request.Header.Set("Authorization", "Bearer "+validToken)

		m.CheckJWT(okHandler(t, &sawClaims)).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, sawClaims)
		// Custom carries the full payload, registered fields included.
		if diff := cmp.Diff(&verifier.Claims{Subject: "user-1"}, sawClaims,
			cmpopts.IgnoreFields(verifier.Claims{}, "Expiry", "Custom")); diff != "" {
			t.Errorf("claims mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, "read:things", sawClaims.Custom["scope"])
		assert.Equal(t, "user-1", sawClaims.Custom["sub"])
		assert.EqualValues(t, 1, metrics.counter("jwt_check_total/success"))
	})

	t.Run("rejects an invalid token with 401", func(t *testing.T) {
		metrics := newRecordingMetrics()
		m, err := New(WithVerifier(stack.verifier), WithMetrics(metrics))
		require.NoError(t, err)

		expired := stack.sign(t, jwt.Claims{
			Subject: "user-1",
			Expiry:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}, nil)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/things", nil)
		request.Header.Set("Authorization", "Bearer "+expired)

		m.CheckJWT(http.NotFoundHandler()).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.JSONEq(t, `{"error": "invalid token"}`, recorder.Body.String())
		assert.EqualValues(t, 1, metrics.counter("jwt_check_total/failure"))
	})

	t.Run("rejects a missing bearer with 400", func(t *testing.T) {
		m, err := New(WithVerifier(stack.verifier))
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/things", nil)

		m.CheckJWT(http.NotFoundHandler()).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.JSONEq(t, `{"error": "a bearer token is required"}`, recorder.Body.String())
	})

	t.Run("rejects a malformed Authorization header", func(t *testing.T) {
		m, err := New(WithVerifier(stack.verifier))
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/things", nil)
		request.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		m.CheckJWT(http.NotFoundHandler()).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})

	t.Run("responds 500 when the key set cannot be fetched", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		source, err := jwks.NewCached(
			jwks.WithKeySetURI(server.URL),
			jwks.WithCacheTTL(time.Minute),
			jwks.WithValidationAdjuster(jwks.IdentityAdjuster),
			jwks.WithFetcher(jwks.NewHTTPFetcher(server.Client())),
		)
		require.NoError(t, err)

		v, err := verifier.New(verifier.WithKeySource(source))
		require.NoError(t, err)

		m, err := New(WithVerifier(v))
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/things", nil)
		request.Header.Set("Authorization", "Bearer "+validToken)

		m.CheckJWT(http.NotFoundHandler()).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.JSONEq(t, `{"error": "unable to verify token"}`, recorder.Body.String())
	})

	t.Run("optional credentials pass through without claims", func(t *testing.T) {
		m, err := New(WithVerifier(stack.verifier), WithCredentialsOptional(true))
		require.NoError(t, err)

		var sawClaims *verifier.Claims
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/things", nil)

		m.CheckJWT(okHandler(t, &sawClaims)).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Nil(t, sawClaims)
	})

	t.Run("optional credentials still validate a provided token", func(t *testing.T) {
		m, err := New(WithVerifier(stack.verifier), WithCredentialsOptional(true))
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/things", nil)
		request.Header.Set("Authorization", "Bearer not.a.token")

		m.CheckJWT(http.NotFoundHandler()).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("skips OPTIONS when configured", func(t *testing.T) {
		m, err := New(WithVerifier(stack.verifier), WithValidateOnOptions(false))
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodOptions, "/things", nil)

		m.CheckJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})

	t.Run("validates OPTIONS by default", func(t *testing.T) {
		m, err := New(WithVerifier(stack.verifier))
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodOptions, "/things", nil)

		m.CheckJWT(http.NotFoundHandler()).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("skips excluded URLs", func(t *testing.T) {
		m, err := New(
			WithVerifier(stack.verifier),
			WithExclusionURLs([]string{"/healthz"}),
		)
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/healthz", nil)

		m.CheckJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("excluded URLs do not leak to other paths", func(t *testing.T) {
		m, err := New(
			WithVerifier(stack.verifier),
			WithExclusionURLs([]string{"/healthz"}),
		)
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/things", nil)

		m.CheckJWT(http.NotFoundHandler()).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("runs each check in a span", func(t *testing.T) {
		m, err := New(WithVerifier(stack.verifier), WithTracer(&NoopTracer{}))
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/things", nil)
		request.Header.Set("Authorization", "Bearer "+validToken)

		m.CheckJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestMustGetClaims(t *testing.T) {
	t.Run("panics outside an authenticated path", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/things", nil)
		assert.Panics(t, func() {
			MustGetClaims[*verifier.Claims](request.Context())
		})
	})
}
