package handler

import (
	"encoding/json"
	"net/http"

	"clinica-dental-backend/pkg/response"
	"clinica-dental-backend/pkg/validator"
)

// decodeRequest reads a JSON body into dst and validates it. On failure the
// error response is already written.
func decodeRequest(w http.ResponseWriter, r *http.Request, v *validator.CustomValidator, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	if err := v.Validate(dst); err != nil {
		response.ValidationError(w, v.FormatValidationErrors(err))
		return false
	}
	return true
}
