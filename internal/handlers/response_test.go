package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"controlia/internal/llm"
	"controlia/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"auth", &services.AuthError{Message: "Não autenticado"}, http.StatusUnauthorized, `{"error":"Não autenticado"}`},
		{"permission", &services.PermissionError{Message: "Permissão insuficiente"}, http.StatusForbidden, `{"error":"Permissão insuficiente"}`},
		{"not found", &services.NotFoundError{Message: "Conversa não encontrada"}, http.StatusNotFound, `{"error":"Conversa não encontrada"}`},
		{"validation", &services.ValidationError{Message: "Mensagem não pode ser vazia"}, http.StatusBadRequest, `{"error":"Mensagem não pode ser vazia"}`},
		{"conflict", &services.ConflictError{Message: "E-mail já cadastrado"}, http.StatusConflict, `{"error":"E-mail já cadastrado"}`},
		{"quota", &services.QuotaError{Message: "Limite de mensagens do plano atingido"}, http.StatusTooManyRequests, `{"error":"Limite de mensagens do plano atingido"}`},
		{"upstream", &llm.UpstreamError{Provider: llm.ProviderOpenAI, StatusCode: 503}, http.StatusInternalServerError, `{"error":"Falha ao comunicar com o provedor de IA"}`},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, `{"error":"Erro interno do servidor"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			RespondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

// Internal detail must never leak into the error body.
func TestRespondErrorHidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondError(c, errors.New("dial tcp 10.0.0.5:5432: connect: connection refused"))

	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}
