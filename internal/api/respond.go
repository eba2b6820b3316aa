package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto its application error kind. Internal failures are
// reported without their cause.
func writeError(w http.ResponseWriter, err error) {
	appErr := apperrors.FromError(err)

	details := err.Error()
	if appErr.Status >= http.StatusInternalServerError {
		details = appErr.Message
	}

	writeJSON(w, appErr.Status, ErrorResponse{Error: appErr.Code, Details: details})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Wrap(err, apperrors.ErrValidation, "could not parse JSON body")
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperrors.Wrap(err, apperrors.ErrValidation, "invalid field "+verrs[0].Field())
		}
		return apperrors.Wrap(err, apperrors.ErrValidation, "invalid request body")
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, apperrors.ErrValidation, name+" must be a valid UUID")
	}
	return id, nil
}
