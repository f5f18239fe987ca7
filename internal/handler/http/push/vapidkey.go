package push

import (
	"net/http"

	"hookrelay/internal/handler/http/respond"
)

// VAPIDKeyHandler serves GET /api/notifications/push/vapid-key. The public
// key is not a secret; the browser needs it to create a subscription, so the
// endpoint is unauthenticated.
type VAPIDKeyHandler struct {
	PublicKey string
}

func (h VAPIDKeyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=86400")
	respond.JSON(w, http.StatusOK, map[string]string{"public_key": h.PublicKey})
}
