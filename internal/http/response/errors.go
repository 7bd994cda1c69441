package response

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator"

	clientservice "github.com/magabrotheeeer/controtec/internal/services/client"
	"github.com/magabrotheeeer/controtec/internal/storage"
)

// FromError переводит ошибку сервиса клиентов в HTTP-статус и тело ответа.
// Неизвестные ошибки превращаются в 500 с сообщением fallback.
func FromError(err error, fallback string) (int, any) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity, ValidationError(verrs)
	case errors.Is(err, clientservice.ErrValidation):
		return http.StatusUnprocessableEntity, Error("validation failed")
	case errors.Is(err, storage.ErrPhoneExists):
		return http.StatusConflict, Error("phone already registered")
	case errors.Is(err, storage.ErrClientNotFound):
		return http.StatusNotFound, Error("client not found")
	default:
		return http.StatusInternalServerError, Error(fallback)
	}
}
