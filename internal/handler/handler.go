// Package handler is the HTTP glue: decode, validate, call the service, map
// its errors onto status codes. No domain logic lives here.
package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"babylog-sync-server/internal/service"
	"babylog-sync-server/pkg/response"
	"babylog-sync-server/pkg/timeutil"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

var eventKindPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 /-]*$`)

// newValidator registers the app-specific tags the request structs use.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("eventkind", func(fl validator.FieldLevel) bool {
		kind := fl.Field().String()
		return len(kind) <= 40 && eventKindPattern.MatchString(kind)
	})
	v.RegisterValidation("civildate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(timeutil.DateLayout, fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(timeutil.TimeLayout, fl.Field().String())
		return err == nil
	})
	return v
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// writeServiceError maps the service's typed errors to status codes. A
// duplicate entry is a 409 that still carries the existing record.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		response.BadRequest(w, verr.Message)
		return
	}
	var nferr *service.NotFoundError
	if errors.As(err, &nferr) {
		response.NotFound(w, nferr.Error())
		return
	}
	var dup *service.DuplicateEntryError
	if errors.As(err, &dup) {
		response.Conflict(w, dup.Error(), dup.Entry)
		return
	}
	response.InternalError(w, "internal error")
}
