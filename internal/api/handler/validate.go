package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Rrens/smm-bot/internal/api/response"
)

var validate = validator.New()

// decode reads a JSON body into dst and validates it, answering 400 on failure
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			errors := make(map[string]string)
			for _, e := range validationErrors {
				field := e.Field()
				switch tag := e.Tag(); tag {
				case "required":
					errors[field] = "field is required"
				case "url":
					errors[field] = "invalid url"
				case "gt", "min":
					errors[field] = "must be at least " + e.Param()
				case "max":
					errors[field] = "must be at most " + e.Param() + " characters"
				default:
					errors[field] = "validation failed on " + tag
				}
			}
			response.BadRequest(w, errors)
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}
	return true
}
