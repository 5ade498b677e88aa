// Package webutil provides the JSON request/response helpers every
// handler uses: body decoding with a size cap, and uniform response
// encoding.
package webutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/goalpeer/goalpeer/internal/app/system/limits"
)

// DecodeJSON reads the request body into dest. The body is capped at
// limits.MaxJSONBodySize and unknown fields are rejected so typos in
// client payloads fail loudly instead of silently dropping data.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("unsupported content type %q", ct)
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", limits.MaxJSONBodySize)
		}
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	// Trailing garbage after the JSON document is also a client error.
	if dec.More() {
		return errors.New("request body must contain a single JSON document")
	}
	return nil
}

// RespondJSON writes v with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// PathID parses the named chi URL parameter as an ObjectID. ok is false
// when the parameter is missing or malformed; callers respond 404 since
// a malformed id can never reference an existing document.
func PathID(r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
