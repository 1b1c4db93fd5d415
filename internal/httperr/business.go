package httperr

import "errors"

// Códigos estáveis retornados ao cliente. O corpo da resposta nunca
// expõe detalhe interno de banco ou de integração.
const (
	CodeClosedDay           = "closed_day"
	CodeOutsideWorkingHours = "outside_working_hours"
	CodeSlotConflict        = "slot_conflict"
	CodeTooSoon             = "too_soon"
	CodeBusinessNotFound    = "business_not_found"
	CodeServiceNotFound     = "service_not_found"
	CodeBookingNotFound     = "booking_not_found"
	CodeAlreadyCancelled    = "already_cancelled"
	CodePhoneMismatch       = "phone_mismatch"
	CodeInvalidState        = "invalid_state"
)

type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// BusinessCode extrai o código quando err é um BusinessError.
func BusinessCode(err error) (string, bool) {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code, true
	}
	return "", false
}
