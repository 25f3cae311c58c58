package router

import (
	"encoding/json"

	apperrors "github.com/sweetpotato0/ai-desk/errors"
)

// ErrorBody is the error half of a failed envelope.
type ErrorBody struct {
	Code    apperrors.Kind `json:"code"`
	Message string         `json:"message"`
}

// Envelope is the response body of every routed request. When OK is true
// only Data is serialized, otherwise only Error.
type Envelope struct {
	OK    bool
	Data  any
	Error *ErrorBody
}

// Success wraps data in a success envelope.
func Success(data any) Envelope {
	return Envelope{OK: true, Data: data}
}

// Failure wraps a classified error in a failure envelope.
func Failure(err *apperrors.Error) Envelope {
	if err == nil {
		err = apperrors.New(apperrors.KindRuntime, "Internal server error")
	}
	return Envelope{Error: &ErrorBody{Code: err.Kind, Message: err.Message}}
}

// MarshalJSON emits {"ok":true,"data":...} or {"ok":false,"error":{...}}.
// Data is always present on success, even when it is an empty string.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.OK {
		return json.Marshal(struct {
			OK   bool `json:"ok"`
			Data any  `json:"data"`
		}{OK: true, Data: e.Data})
	}

	body := e.Error
	if body == nil {
		body = &ErrorBody{Code: apperrors.KindRuntime, Message: "Internal server error"}
	}
	return json.Marshal(struct {
		OK    bool       `json:"ok"`
		Error *ErrorBody `json:"error"`
	}{OK: false, Error: body})
}

// UnmarshalJSON decodes an envelope. Data is left as json.RawMessage.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		OK    bool            `json:"ok"`
		Data  json.RawMessage `json:"data"`
		Error *ErrorBody      `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.OK = raw.OK
	e.Error = raw.Error
	e.Data = nil
	if raw.Data != nil {
		e.Data = raw.Data
	}
	return nil
}

// Response is an envelope together with its HTTP status.
type Response struct {
	Status   int
	Envelope Envelope
}
