package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/stockroom/warehouse/internal/apperr"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	ExistingID int64  `json:"existing_id,omitempty"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidTransition:
		return http.StatusBadRequest
	case apperr.KindDuplicateName, apperr.KindDuplicateDocNo, apperr.KindNameExists,
		apperr.KindInsufficientStock:
		return http.StatusConflict
	case apperr.KindNotFound, apperr.KindItemNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an errorBody. Unclassified errors are logged
// and reported without detail.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var e *apperr.Error
	if !errors.As(err, &e) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
			Error:   string(apperr.KindInternal),
			Message: "internal server error",
		})
		return
	}

	c.AbortWithStatusJSON(statusFor(e.Kind), errorBody{
		Error:      string(e.Kind),
		Message:    e.Message,
		ExistingID: e.ExistingID,
	})
}

// bindError converts a binding failure into a validation error naming the
// offending fields.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("malformed request: %v", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describeField(fe))
	}
	return apperr.Validation("%s", strings.Join(problems, "; "))
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "bizdate":
		return fmt.Sprintf("%s must be YYYY-MM-DD", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
