package api

import (
	"reflect" // Struct tag access
	"strings" // Tag parsing
	"sync"    // One time registration

	"github.com/gin-gonic/gin/binding"       // Gin request binding
	"github.com/go-playground/validator/v10" // Request validation
)

var registerOnce sync.Once

// registerJSONTagNames makes validation errors report JSON field names
func registerJSONTagNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form", "uri"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}
