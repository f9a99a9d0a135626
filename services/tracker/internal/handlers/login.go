package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/music-odyssey/internal/platform/api"
	"github.com/example/music-odyssey/internal/platform/auth"
	"github.com/example/music-odyssey/internal/platform/httpserver"
)

const ownerSubject = "owner"

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

// Login exchanges the owner password for a bearer token.
func Login(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var req loginRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		if !auth.CheckPassword(d.OwnerPasswordHash, req.Password) {
			api.Unauthorized(w, "INVALID_CREDENTIALS", "Invalid password", rid)
			return
		}
		token, exp, err := d.Signer.Issue(ownerSubject)
		if err != nil {
			d.logger().Error("issue token", zap.Error(err), zap.String("request_id", rid))
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: token, ExpiresAt: exp.UTC().Format(time.RFC3339)})
	}
}
