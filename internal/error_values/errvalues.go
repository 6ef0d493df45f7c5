package errorvalues

import "errors"

var (
	ErrProfileExists   = errors.New("such profile already exists")
	ErrProfileNotFound = errors.New("profile doesn't exist")
	ErrLastProfile     = errors.New("cannot delete the last remaining profile")

	ErrFoodNotFound  = errors.New("food is not in the database")
	ErrEntryNotFound = errors.New("log entry doesn't exist")
	ErrGoalNotSet    = errors.New("no daily goal set")
	ErrNoWeightData  = errors.New("not enough weight entries")

	ErrInvalidMealSlot = errors.New("invalid meal slot")
	ErrInvalidDate     = errors.New("date must be in YYYY-MM-DD form")
	ErrInvalidQuantity = errors.New("quantity must be a positive whole number")
	ErrInvalidCalories = errors.New("calories must be a positive whole number")
	ErrInvalidWeight   = errors.New("weight must be a positive number")
	ErrEmptyFoodName   = errors.New("food name cannot be empty")
)
