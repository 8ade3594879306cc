package http

import "net/http"

type meResponse struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
}

func GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{Subject: claims.Subject, Role: claims.Role})
}
