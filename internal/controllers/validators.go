package controllers

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{5,18}[0-9]$`)

	// validationClock is replaced in tests.
	validationClock = time.Now

	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the custom binding tags used by request structs:
//   phone   - digits with optional leading +, spaces, dashes and parentheses
//   notpast - a YYYY-MM-DD date that is today or later
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err := v.RegisterValidation("phone", validatePhone); err != nil {
			registerErr = err
			return
		}
		registerErr = v.RegisterValidation("notpast", validateNotPast)
	})
	return registerErr
}

// validateValue checks a single value against tag using gin's validator.
func validateValue(v any, tag string) error {
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return engine.Var(v, tag)
}

func validatePhone(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || phonePattern.MatchString(s)
}

func validateNotPast(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	now := validationClock()
	d, err := time.ParseInLocation("2006-01-02", s, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !d.Before(today)
}
