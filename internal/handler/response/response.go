package response

import (
	"encoding/json"
	"net/http"

	"github.com/koyif/billing/pkg/dto"
	"github.com/koyif/billing/pkg/logger"
)

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.Error("error while encoding response to JSON", logger.Error(err))
	}
}

// Error writes the {code, message} envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, dto.Error{Code: status, Message: message})
}

func Validation(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusBadRequest, dto.ValidationErrors{Errors: errs})
}

func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
