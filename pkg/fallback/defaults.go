package fallback

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// Storefront edge function names with a registered default mock
const (
	EndpointCreatePaymentIntent   = "create-payment-intent"
	EndpointConfirmPayment        = "confirm-payment"
	EndpointCreateOrder           = "create-order"
	EndpointGetOrder              = "get-order"
	EndpointSendOrderConfirmation = "send-order-confirmation"
	EndpointValidateAddress       = "validate-address"
	EndpointGetCourses            = "get-courses"
	EndpointEnrollCourse          = "enroll-course"
	EndpointHealthCheck           = "health-check"
)

const (
	defaultCurrency         = "eur"
	mockPaymentIntentPrefix = "pi_mock_"
	mockOrderNumberPrefix   = "MOCK-"

	readLatency     = 150 * time.Millisecond
	checkoutLatency = 300 * time.Millisecond
)

// mockCourses is the catalog served when the real course listing is unavailable
var mockCourses = []map[string]any{
	{"id": "course-intro-go", "title": "Introduction to Go", "level": "beginner", "durationHours": 12, "priceCents": 4900},
	{"id": "course-concurrency", "title": "Concurrency Patterns", "level": "intermediate", "durationHours": 8, "priceCents": 6900},
	{"id": "course-distributed", "title": "Distributed Systems Basics", "level": "advanced", "durationHours": 16, "priceCents": 9900},
}

// RegisterDefaults registers a mock for every storefront endpoint
func RegisterDefaults(p *Provider) {
	defaults := []struct {
		endpoint string
		builder  Builder
		latency  time.Duration
	}{
		{EndpointCreatePaymentIntent, buildCreatePaymentIntent, checkoutLatency},
		{EndpointConfirmPayment, buildConfirmPayment, checkoutLatency},
		{EndpointCreateOrder, buildCreateOrder, checkoutLatency},
		{EndpointGetOrder, buildGetOrder, readLatency},
		{EndpointSendOrderConfirmation, buildSendOrderConfirmation, readLatency},
		{EndpointValidateAddress, buildValidateAddress, readLatency},
		{EndpointGetCourses, buildGetCourses, readLatency},
		{EndpointEnrollCourse, buildEnrollCourse, readLatency},
		{EndpointHealthCheck, buildHealthCheck, 0},
	}

	for _, d := range defaults {
		// builders and names are static, Register cannot fail here
		_ = p.Register(d.endpoint, d.builder, WithLatency(d.latency))
	}
}

// WithoutLatency strips simulated latency from every registered mock
func (p *Provider) WithoutLatency() *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, mock := range p.mocks {
		mock.Latency = 0
		p.mocks[name] = mock
	}
	return p
}

func buildCreatePaymentIntent(req types.Envelope, now time.Time) (*types.Response, error) {
	body := req.BodyMap()
	id := mockPaymentIntentPrefix + compactUUID()
	return &types.Response{Data: map[string]any{
		"paymentIntentId": id,
		"clientSecret":    id + "_secret_mock",
		"amount":          numberOr(body, "amount", 0),
		"currency":        stringOr(body, "currency", defaultCurrency),
		"status":          "requires_payment_method",
		"createdAt":       now.UTC().Format(time.RFC3339),
	}}, nil
}

func buildConfirmPayment(req types.Envelope, now time.Time) (*types.Response, error) {
	body := req.BodyMap()
	return &types.Response{Data: map[string]any{
		"paymentIntentId": stringOr(body, "paymentIntentId", mockPaymentIntentPrefix+compactUUID()),
		"status":          "succeeded",
		"confirmedAt":     now.UTC().Format(time.RFC3339),
	}}, nil
}

func buildCreateOrder(req types.Envelope, now time.Time) (*types.Response, error) {
	body := req.BodyMap()
	items := []any{}
	if raw, ok := body["items"].([]any); ok {
		items = raw
	}
	return &types.Response{Data: map[string]any{
		"orderId":     uuid.New().String(),
		"orderNumber": fmt.Sprintf("%s%s-%s", mockOrderNumberPrefix, now.UTC().Format("20060102"), strings.ToUpper(compactUUID()[:6])),
		"status":      "pending",
		"items":       items,
		"total":       numberOr(body, "total", 0),
		"currency":    stringOr(body, "currency", defaultCurrency),
		"createdAt":   now.UTC().Format(time.RFC3339),
	}}, nil
}

func buildGetOrder(req types.Envelope, now time.Time) (*types.Response, error) {
	body := req.BodyMap()
	return &types.Response{Data: map[string]any{
		"orderId":   stringOr(body, "orderId", uuid.New().String()),
		"status":    "processing",
		"items":     []any{},
		"updatedAt": now.UTC().Format(time.RFC3339),
	}}, nil
}

func buildSendOrderConfirmation(req types.Envelope, now time.Time) (*types.Response, error) {
	body := req.BodyMap()
	return &types.Response{Data: map[string]any{
		"sent":      true,
		"messageId": uuid.New().String(),
		"recipient": stringOr(body, "email", ""),
		"sentAt":    now.UTC().Format(time.RFC3339),
	}}, nil
}

func buildValidateAddress(req types.Envelope, now time.Time) (*types.Response, error) {
	body := req.BodyMap()
	var address any = map[string]any{}
	if a, ok := body["address"]; ok {
		address = a
	}
	return &types.Response{Data: map[string]any{
		"valid":       true,
		"normalized":  address,
		"suggestions": []any{},
		"validatedAt": now.UTC().Format(time.RFC3339),
	}}, nil
}

func buildGetCourses(req types.Envelope, now time.Time) (*types.Response, error) {
	courses := make([]map[string]any, len(mockCourses))
	for i, c := range mockCourses {
		course := make(map[string]any, len(c))
		for k, v := range c {
			course[k] = v
		}
		courses[i] = course
	}
	return &types.Response{Data: map[string]any{
		"courses":   courses,
		"total":     len(courses),
		"fetchedAt": now.UTC().Format(time.RFC3339),
	}}, nil
}

func buildEnrollCourse(req types.Envelope, now time.Time) (*types.Response, error) {
	body := req.BodyMap()
	courseID := stringOr(body, "courseId", "")
	if courseID == "" {
		return &types.Response{Error: &types.ResponseError{
			Code:    "invalid_request",
			Message: "courseId is required",
		}}, nil
	}
	return &types.Response{Data: map[string]any{
		"enrollmentId": uuid.New().String(),
		"courseId":     courseID,
		"status":       "enrolled",
		"enrolledAt":   now.UTC().Format(time.RFC3339),
	}}, nil
}

func buildHealthCheck(req types.Envelope, now time.Time) (*types.Response, error) {
	return &types.Response{Data: map[string]any{
		"status":    "ok",
		"timestamp": now.UTC().Format(time.RFC3339),
	}}, nil
}

func compactUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func stringOr(body map[string]any, key, fallback string) string {
	if v, ok := body[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func numberOr(body map[string]any, key string, fallback float64) float64 {
	switch v := body[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}
