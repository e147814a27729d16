package rates

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError covers network failures and non-2xx responses that carry
// no usable explanation.
type TransportError struct {
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Failed to fetch rates: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("Failed to fetch rates: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BusinessError is a response the service explained: a non-2xx with a
// detail field, or a 200 body that does not carry a rate.
type BusinessError struct {
	StatusCode int
	Detail     string
}

func (e *BusinessError) Error() string { return e.Detail }

// errInvalidResponse is the detail used when a 200 body has no rate.
const errInvalidResponse = "Invalid response from the server"

// Message returns the user-presentable text for a lookup failure.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Detail
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Error()
	}
	return err.Error()
}
