package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func webhookRouter() *gin.Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	// The billing service is never reached when the signature fails.
	handler := NewWebhookHandler(nil, "whsec_test_secret", logger)

	r := gin.New()
	r.POST("/api/stripe/webhook", handler.HandleStripe)
	return r
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook",
		strings.NewReader(`{"type":"invoice.paid"}`))

	webhookRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Assinatura do evento inválida"}`, w.Body.String())
}

func TestWebhookRejectsForgedSignature(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook",
		strings.NewReader(`{"type":"customer.subscription.deleted"}`))
	req.Header.Set("Stripe-Signature", "t=1693000000,v1=deadbeef")

	webhookRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Assinatura do evento inválida"}`, w.Body.String())
}
