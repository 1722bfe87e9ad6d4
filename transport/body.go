package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/url"
	"strings"
)

// encodeBody turns a request body into a reader. Maps, slices and structs are
// sent as JSON; url.Values as a form.
func encodeBody(body any) (io.Reader, string, error) {
	switch typed := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(typed), "", nil
	case string:
		return strings.NewReader(typed), "", nil
	case io.Reader:
		return typed, "", nil
	case url.Values:
		return strings.NewReader(typed.Encode()), "application/x-www-form-urlencoded", nil
	case json.RawMessage:
		return bytes.NewReader(typed), "application/json", nil
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(encoded), "application/json", nil
	}
}
