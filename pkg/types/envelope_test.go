package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvelope_Header(t *testing.T) {
	assert.Equal(t, "", Envelope{}.Header("x-health-check"))

	env := Envelope{Headers: map[string]string{"x-health-check": "true"}}
	assert.Equal(t, "true", env.Header("x-health-check"))
	assert.Equal(t, "", env.Header("missing"))
}

func TestEnvelope_BodyMap(t *testing.T) {
	body := map[string]any{"amount": 100.0}
	assert.Equal(t, body, Envelope{Body: body}.BodyMap())
	assert.Nil(t, Envelope{Body: "text"}.BodyMap())
	assert.Nil(t, Envelope{}.BodyMap())
}

func TestResponseError_Error(t *testing.T) {
	assert.Equal(t, "http_500: boom", (&ResponseError{Code: "http_500", Message: "boom"}).Error())
	assert.Equal(t, "boom", (&ResponseError{Message: "boom"}).Error())
}

func TestResponse_Flags(t *testing.T) {
	var nilResp *Response
	assert.False(t, nilResp.FallbackUsed())
	assert.False(t, nilResp.Failed())

	plain := &Response{Data: 1}
	assert.False(t, plain.FallbackUsed())
	assert.False(t, plain.Failed())

	substituted := &Response{Fallback: &FallbackMetadata{Used: true, Reason: FallbackReasonMockMode, Timestamp: time.Now()}}
	assert.True(t, substituted.FallbackUsed())

	failed := &Response{Error: &ResponseError{Code: "x"}}
	assert.True(t, failed.Failed())
}
