package httpx

import (
	"bytes"
	"net/http"
)

// ResponseBuffer records a response so a middleware can inspect it before
// deciding whether to forward it.
type ResponseBuffer interface {
	http.ResponseWriter
	Status() int
	Body() []byte
	Flush(w http.ResponseWriter) error
}

type responseBuffer struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func NewResponseBuffer() ResponseBuffer {
	return &responseBuffer{}
}

// Status is 200 once something was written without an explicit status.
func (resp *responseBuffer) Status() int {
	if resp.status == 0 && resp.body.Len() > 0 {
		return http.StatusOK
	}
	return resp.status
}

func (resp *responseBuffer) Header() http.Header {
	if resp.header == nil {
		resp.header = http.Header{}
	}
	return resp.header
}

func (resp *responseBuffer) Body() []byte {
	return resp.body.Bytes()
}

func (resp *responseBuffer) Write(body []byte) (int, error) {
	return resp.body.Write(body)
}

func (resp *responseBuffer) WriteHeader(statusCode int) {
	if resp.status == 0 {
		resp.status = statusCode
	}
}

func (resp *responseBuffer) Flush(w http.ResponseWriter) error {
	header := w.Header()
	for key, value := range resp.header {
		header[key] = value
	}
	if resp.status != 0 {
		w.WriteHeader(resp.status)
	}
	if resp.body.Len() > 0 {
		_, err := w.Write(resp.body.Bytes())
		return err
	}
	return nil
}
