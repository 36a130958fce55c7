package common

import (
	"context"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem provides an Idempotency-Key middleware backed by Redis.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		key := "idem:" + Sha256Hex(header)
		ok, err := i.R.SetNX(ctx, key, "locked", i.TTL).Result()
		if err != nil {
			JSON(w, http.StatusInternalServerError, ErrorResponse{
				BaseResponse: BaseResponse{StatusCode: http.StatusInternalServerError, Success: false, Message: "idempotency store error"},
			})
			return
		}
		if !ok {
			JSON(w, http.StatusConflict, ErrorResponse{
				BaseResponse: BaseResponse{StatusCode: http.StatusConflict, Success: false, Message: "duplicate request"},
			})
			return
		}
		defer func() {
			// ensure the key expires even if the handler panics
			_ = i.R.Expire(context.Background(), key, i.TTL).Err()
		}()
		next.ServeHTTP(w, r)
	})
}
