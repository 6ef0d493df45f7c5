package service

import (
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	errorvalues "github.com/limbo/caltrack/internal/error_values"
	"github.com/limbo/caltrack/pkg/entity"
)

// Package for custom validations
var (
	validate *validator.Validate
	once     sync.Once
)

const dateLayout = "2006-01-02"

func InitValidator() {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(dateLayout, fl.Field().String())
			return err == nil
		})
		validate.RegisterValidation("meal_slot", func(fl validator.FieldLevel) bool {
			return entity.MealSlot(fl.Field().String()).Valid()
		})
	})
}

// ValidateDate checks calendar-day strings arriving outside of request
// structs (path and query params).
func ValidateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return errorvalues.ErrInvalidDate
	}
	return nil
}

func ValidateMealSlot(slot entity.MealSlot) error {
	if !slot.Valid() {
		return errorvalues.ErrInvalidMealSlot
	}
	return nil
}
