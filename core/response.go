package core

import (
	"encoding/json"
	"mime"
	"strings"
)

// ResponseBody is the payload of a successful call. Status code and headers
// are intentionally not part of the contract.
type ResponseBody struct {
	raw         []byte
	contentType string
}

func NewResponseBody(raw []byte, contentType string) ResponseBody {
	return ResponseBody{
		raw:         append([]byte(nil), raw...),
		contentType: strings.TrimSpace(contentType),
	}
}

func (b ResponseBody) Bytes() []byte {
	return append([]byte(nil), b.raw...)
}

func (b ResponseBody) String() string {
	return string(b.raw)
}

func (b ResponseBody) ContentType() string {
	return b.contentType
}

func (b ResponseBody) Len() int {
	return len(b.raw)
}

// Decode unmarshals a JSON body into target.
func (b ResponseBody) Decode(target any) error {
	return json.Unmarshal(b.raw, target)
}

// IsJSON reports whether the body was declared or sniffed as JSON.
func (b ResponseBody) IsJSON() bool {
	if b.contentType != "" {
		mediaType, _, err := mime.ParseMediaType(b.contentType)
		if err == nil && (mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")) {
			return true
		}
	}
	return json.Valid(b.raw)
}

// Value returns the parsed body: the decoded JSON value for JSON bodies and
// the text otherwise.
func (b ResponseBody) Value() any {
	if len(b.raw) == 0 {
		return ""
	}
	if b.IsJSON() {
		var decoded any
		if err := json.Unmarshal(b.raw, &decoded); err == nil {
			return decoded
		}
	}
	return string(b.raw)
}
