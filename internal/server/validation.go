package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/desertthunder/tracklib/internal/shared"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// fieldMessages holds the client-facing message for each validated field, keyed by its JSON name.
var fieldMessages = map[string]string{
	"isrc":   "Invalid ISRC submitted.",
	"artist": "Invalid artist name submitted.",
}

// addTrackRequest is the body of POST /addTrack.
type addTrackRequest struct {
	ISRC string `json:"isrc" validate:"required,isrc"`
}

// isrcParam is the {isrc} path parameter of GET /track/{isrc}.json.
type isrcParam struct {
	ISRC string `json:"isrc" validate:"required,isrc"`
}

// artistQuery is the query string of GET /tracks.
type artistQuery struct {
	Artist string `json:"artist" validate:"required,min=1,max=128"`
}

// getValidator returns the shared validator with the isrc tag registered.
// Field errors are reported under their JSON names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("isrc", func(fl validator.FieldLevel) bool {
			return shared.ValidISRC(fl.Field().String())
		})
	})
	return validate
}

// validateRequest validates s and formats each failure as "location[field]: message".
// Returns nil when s is valid.
func validateRequest(s any, location string) []string {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []string{fmt.Sprintf("%s: %v", location, err)}
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("failed %s validation", fe.Tag())
		}
		messages = append(messages, fmt.Sprintf("%s[%s]: %s", location, fe.Field(), msg))
	}
	return messages
}
