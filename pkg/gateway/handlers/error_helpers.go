package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clipstream-go/clipstream/pkg/core"
	"github.com/clipstream-go/clipstream/pkg/gateway/apierror"
	"github.com/clipstream-go/clipstream/pkg/gateway/mw"
)

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	coreErr, status := apierror.FromError(err, reqID)
	mw.WriteJSONError(w, status, coreErr)
}

func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	mw.WriteJSONError(w, http.StatusMethodNotAllowed, &core.Error{
		Type:      core.ErrInvalidRequest,
		Message:   "method not allowed",
		Code:      "method_not_allowed",
		RequestID: reqID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody parses a JSON request body with the configured size cap.
func decodeBody(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return core.NewInvalidRequestError("invalid json body: " + err.Error())
	}
	return nil
}

// userFrom identifies the caller for likes and subscriptions. There is
// no authentication; the header is a client-chosen handle.
func userFrom(r *http.Request) string {
	if u := r.Header.Get("X-User"); u != "" {
		return u
	}
	return "anonymous"
}

func randHex(nbytes int) string {
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
