package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/jrozner/roomboard/web/apperr"
)

type nopCloseSeeker struct {
	io.ReadSeeker
}

func (n nopCloseSeeker) Close() error {
	return nil
}

// BufferBody reads the whole request body up front so handlers get a
// seekable body, rejecting anything larger than max bytes with 413. A max of
// zero or less disables the limit.
func BufferBody(max int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			reader := io.Reader(r.Body)
			if max > 0 {
				reader = io.LimitReader(r.Body, max+1)
			}

			body, err := io.ReadAll(reader)
			closeErr := r.Body.Close()
			if err != nil {
				hlog.FromRequest(r).Warn().Err(err).Msg("unable to read request body")
				writeError(w, http.StatusBadRequest, apperr.CodeInvalidArgument, "Unable to read request body")
				return
			}

			if closeErr != nil {
				hlog.FromRequest(r).Warn().Err(closeErr).Msg("unable to close request body")
			}

			if max > 0 && int64(len(body)) > max {
				writeError(w, http.StatusRequestEntityTooLarge, apperr.CodeInvalidArgument, "Request body too large")
				return
			}

			r.Body = nopCloseSeeker{bytes.NewReader(body)}
			next.ServeHTTP(w, r)
		})
	}
}
