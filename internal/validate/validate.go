package validate

import (
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// UUIDValue lets `required` reject uuid.Nil.
func UUIDValue(v reflect.Value) interface{} {
	id, ok := v.Interface().(uuid.UUID)
	if !ok || id == uuid.Nil {
		return nil
	}
	return id.String()
}

func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterCustomTypeFunc(UUIDValue, uuid.UUID{})
	})
	return validate
}
