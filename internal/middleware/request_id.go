package middleware

import (
	"net/http"

	"github.com/S1riyS/os-course-lab-4/memfs/pkg/logging"
)

const RequestIDHeader = "X-Request-ID"

func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := logging.GetRequestIDFromCtx(ctx)
		if requestID == "" {
			requestID = r.Header.Get(RequestIDHeader)
		}

		if logging.ValidRequestID(requestID) {
			ctx = logging.MakeContextWithRequestID(ctx, requestID)
		} else {
			ctx = logging.MakeContextWithNewRequestID(ctx)
		}

		w.Header().Set(RequestIDHeader, logging.GetRequestIDFromCtx(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
