package handlers

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-stay-holds/internal/domain"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags used by request DTOs on
// gin's default validator. Safe to call more than once.
//
//   - isodate: a calendar date in YYYY-MM-DD form.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(domain.DateLayout, fl.Field().String())
			return err == nil
		})
	})
}
