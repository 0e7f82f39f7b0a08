package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/hr-onboarding-api/internal/middleware"
	"github.com/noah-isme/hr-onboarding-api/internal/models"
	"github.com/noah-isme/hr-onboarding-api/internal/service"
	appErrors "github.com/noah-isme/hr-onboarding-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// NewValidator returns a validator that reports fields by their json or form name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

func actorFromContext(c *gin.Context) (service.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return service.Actor{}, false
	}
	return service.ActorFromClaims(claims), true
}

// validateRequest runs struct validation and maps failures to a 400 with
// one detail per offending field.
func validateRequest(v *validator.Validate, req interface{}, message string) error {
	if v == nil {
		return nil
	}
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Field()] = fieldMessage(fe)
		}
		appErr = appErr.WithDetails(details)
	}
	return appErr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
