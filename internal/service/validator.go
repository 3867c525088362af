package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/clever-parlay/internal/models"
)

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("sport", validateSport); err != nil {
		panic(fmt.Sprintf("failed to register sport validation: %v", err))
	}
	return v
}

func validateSport(fl validator.FieldLevel) bool {
	_, ok := models.ParseSport(fl.Field().String())
	return ok
}
