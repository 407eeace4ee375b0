package response

import (
	"errors"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/ArubikU/blobcraft/internal/model"
)

type CommonResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *model.Error `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func FromDTO(w http.ResponseWriter, status int, data any) error {
	return write(w, status, CommonResponse{Data: data})
}

func FromMessage(w http.ResponseWriter, status int, message string) error {
	return write(w, status, CommonResponse{Data: MessageResponse{Message: message}})
}

// FromError writes err as a coded error. Errors without a code are reported
// as internal.
func FromError(w http.ResponseWriter, status int, err error) error {
	var coded model.Error
	if !errors.As(err, &coded) {
		coded = model.ErrInternal.Fmt(err.Error())
	}
	return write(w, status, CommonResponse{Error: &coded})
}

func write(w http.ResponseWriter, status int, body CommonResponse) error {
	data, err := sonic.Marshal(body)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}
