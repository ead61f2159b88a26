package api

import (
	"encoding/json"
	"net/http"

	"github.com/kalambet/kindred/internal/profile"
)

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.State.Profile().GetProfile()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profile: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleUpdateProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var u profile.Update
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		p, err := deps.State.Profile().Merge(u)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update profile: %v", err)
			return
		}
		deps.Logger.Info("profile updated via api")
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "profile": p})
	}
}
