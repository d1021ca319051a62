package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mlopez/flashdeck/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeAndValidate decodes the JSON request body into dst and runs
// struct validation, mapping failures to client errors.
func decodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewBadRequestError("malformed JSON body")
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewValidationError(strings.ToLower(fe.Field()), "failed rule '"+fe.Tag()+"'")
		}
		return errors.NewBadRequestError("invalid request body")
	}
	return nil
}
