package jwksauth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/veltio/go-jwks-auth/core"
)

// ErrJWTMissing is returned when no bearer credential is present on the
// request and credentials are required. Re-exported from core for
// convenience in custom error handlers.
var ErrJWTMissing = core.ErrJWTMissing

// ErrorHandler is a handler which is called when an error occurs in the
// JWTMiddleware. Among some general errors, this handler also determines
// the response of the JWTMiddleware when a token is not found or is
// invalid. The err can be checked against core.ErrJWTMissing,
// core.ErrInvalidToken, core.ErrMissingCredentials and
// core.ErrUnsupportedAlgorithm for specific cases. If you implement your
// own ErrorHandler you MUST take the error kinds into consideration as not
// properly responding to them could result in the JWTMiddleware not
// functioning as intended.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler is the default error handler implementation for the
// JWTMiddleware. It writes a JSON body of the form {"error": "<message>"}
// with a status chosen by the error kind:
//
//   - 400 for a missing bearer credential
//   - 401 for an invalid token
//   - 500 for everything else (failed key set fetch, unsupported key
//     algorithm, misconfiguration)
//
// Messages are deliberately generic so the underlying failure detail is
// not disclosed to the client; the full error remains available to custom
// handlers and loggers.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case errors.Is(err, core.ErrJWTMissing):
		writeError(w, http.StatusBadRequest, "a bearer token is required")
	case errors.Is(err, core.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, core.ErrMissingCredentials), errors.Is(err, core.ErrUnsupportedAlgorithm):
		writeError(w, http.StatusInternalServerError, "unable to verify token")
	default:
		writeError(w, http.StatusInternalServerError, "something went wrong while checking the JWT")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
