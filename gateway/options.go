package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// RequestOptions describe one backend call. At most one of JSON, Body and
// Multipart should be set; JSON wins over Body, Multipart wins over both.
type RequestOptions struct {
	// Method defaults to GET.
	Method string
	// Header values override the gateway defaults key by key.
	Header http.Header
	// JSON is marshaled as the request body.
	JSON any
	// Body is sent as is.
	Body io.Reader
	// Multipart is encoded as multipart/form-data. The gateway does not set
	// its JSON content type for multipart bodies; the writer supplies its own
	// boundary.
	Multipart *Multipart
}

// Multipart is a form upload, e.g. a CSR file plus metadata fields.
type Multipart struct {
	Fields map[string]string
	Files  []MultipartFile
}

// MultipartFile is one file part.
type MultipartFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

type encodedBody struct {
	reader      io.Reader
	contentType string
}

func (o RequestOptions) method() string {
	if o.Method == "" {
		return http.MethodGet
	}
	return o.Method
}

func (o RequestOptions) encode() (encodedBody, error) {
	switch {
	case o.Multipart != nil:
		return o.Multipart.encode()
	case o.JSON != nil:
		data, err := json.Marshal(o.JSON)
		if err != nil {
			return encodedBody{}, fmt.Errorf("marshal request body: %w", err)
		}
		return encodedBody{reader: bytes.NewReader(data), contentType: contentTypeJSON}, nil
	case o.Body != nil:
		return encodedBody{reader: o.Body, contentType: contentTypeJSON}, nil
	default:
		return encodedBody{contentType: contentTypeJSON}, nil
	}
}

func (m *Multipart) encode() (encodedBody, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range m.Fields {
		if err := w.WriteField(name, value); err != nil {
			return encodedBody{}, fmt.Errorf("multipart field %s: %w", name, err)
		}
	}
	for _, f := range m.Files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return encodedBody{}, fmt.Errorf("multipart file %s: %w", f.Field, err)
		}
		if f.Content != nil {
			if _, err := io.Copy(part, f.Content); err != nil {
				return encodedBody{}, fmt.Errorf("multipart file %s: %w", f.Field, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return encodedBody{}, fmt.Errorf("multipart close: %w", err)
	}
	return encodedBody{reader: &buf, contentType: w.FormDataContentType()}, nil
}
