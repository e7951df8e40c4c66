package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"pharmacy/internal/apperror"
	"pharmacy/internal/middleware"
	"pharmacy/pkg/logger"
	"pharmacy/pkg/pagination"
	"pharmacy/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// report binding failures by json name rather than Go field name
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// respondError writes err using its AppError code and status. Anything else
// is logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.NewInternal(err)
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", "error", err)
	}
	_ = c.Error(err)
	c.JSON(appErr.HTTPStatus, response.FieldError(appErr.HTTPStatus, appErr.Code, appErr.Field, appErr.Message, appErr.Details))
}

// respondBindError turns a ShouldBindJSON failure into a field-scoped 400
func respondBindError(c *gin.Context, err error) {
	respondError(c, bindingError(err))
}

func bindingError(err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Field()
		if strings.Contains(fe.Namespace(), apperror.ItemsField+"[") {
			field = apperror.ItemsField
		}
		return apperror.NewValidation(field, validationMessage(fe)).WithCause(err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if strings.HasPrefix(field, apperror.ItemsField) {
			field = apperror.ItemsField
		}
		return apperror.NewValidation(field, fmt.Sprintf("Expected a %s.", typeErr.Type.String())).WithCause(err)
	}

	return apperror.NewValidation("", "Invalid request payload").WithCause(err)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

func currentUser(c *gin.Context) string {
	userID, _ := middleware.Identity(c)
	return userID
}

func pageParams(c *gin.Context) pagination.Params {
	return pagination.Parse(c)
}
