package validation

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"
	"gopkg.in/go-playground/validator.v9"

	"github.com/openappconfig/openappconfig/internal/domain/configuration"
)

func SetUpValidators() {
	log.Info().Msg("Setting up custom validators")
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation(PathSegmentValidatorTag, PathSegmentValidator)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up path segment validator")
		}
	}
}

// PathSegmentValidatorTag is for the application, environment and config name parts of a key
var PathSegmentValidatorTag = "pathSegment"
var PathSegmentValidator validator.Func = func(fl validator.FieldLevel) bool {
	segment, ok := fl.Field().Interface().(string)
	if ok {
		if errs := configuration.ValidateSegment(fl.FieldName(), segment); len(errs) != 0 {
			return false
		}
	}
	return true
}
