package main

import (
	"context"
	"encoding/json"
	"errors"
	"gemini-gateway/core"
	"gemini-gateway/core/utils"
	"gemini-gateway/models"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const gatewayName = "Gemini Generation Gateway"

// GatewayHandler 入站请求到 Dispatcher 的薄封装
type GatewayHandler struct {
	dispatcher     *core.Dispatcher
	logger         *logrus.Logger
	model          string
	defaultSystem  string
	requestTimeout time.Duration
}

func NewGatewayHandler(d *core.Dispatcher, logger *logrus.Logger, model, defaultSystem string, requestTimeout time.Duration) *GatewayHandler {
	return &GatewayHandler{
		dispatcher:     d,
		logger:         logger,
		model:          model,
		defaultSystem:  defaultSystem,
		requestTimeout: requestTimeout,
	}
}

// handleRoot 服务信息
func (h *GatewayHandler) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    gatewayName,
		"version": "1.0.0",
		"model":   h.model,
		"endpoints": gin.H{
			"generate": "/api/generate",
			"extract":  "/api/extract",
			"health":   "/health",
			"metrics":  "/metrics",
		},
		"timestamp": time.Now().Unix(),
	})
}

// handleHealth 健康检查
func (h *GatewayHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:      "healthy",
		Gateway:     gatewayName,
		Model:       h.model,
		Credentials: h.dispatcher.Pool().Len(),
		Timestamp:   time.Now().Unix(),
	})
}

// handleGenerate 纯文本回复
func (h *GatewayHandler) handleGenerate(c *gin.Context) {
	outcome, ok := h.dispatch(c, models.GenerationOptions{})
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.GenerateResponse{
		Reply: core.NormalizeReply(outcome.RawBody),
		Raw:   rawJSON(outcome.RawBody),
	})
}

// handleExtract 结构化抽取: 要求上游输出 JSON 并解析回复中的对象
func (h *GatewayHandler) handleExtract(c *gin.Context) {
	outcome, ok := h.dispatch(c, models.GenerationOptions{ForceJSON: true})
	if !ok {
		return
	}

	reply := core.NormalizeReply(outcome.RawBody)
	data, err := core.ExtractStructured(reply)
	if err != nil {
		h.logger.WithField("request_id", c.GetString(requestIDKey)).
			Warnf("❌ Structured extraction failed: %v | reply: %s", err, utils.Truncate(reply, 200))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Message: err.Error(),
				Type:    string(core.KindResponseParse),
				Status:  outcome.StatusCode,
			},
			Raw: rawJSON(outcome.RawBody),
		})
		return
	}

	c.JSON(http.StatusOK, models.ExtractResponse{
		Data:  data,
		Reply: reply,
		Raw:   rawJSON(outcome.RawBody),
	})
}

// dispatch 解析入站请求、构造 OutboundRequest 并分发
// 返回 false 时错误响应已写出
func (h *GatewayHandler) dispatch(c *gin.Context, opts models.GenerationOptions) (core.Outcome, bool) {
	var body models.GenerateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, models.NewErrorResponse("Request body too large", "invalid_request_error"))
			return core.Outcome{}, false
		}
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("Invalid request body: "+err.Error(), "invalid_request_error"))
		return core.Outcome{}, false
	}

	userText := body.UserText()
	if userText == "" {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("Missing prompt: provide one of prompt, message, text, input", "invalid_request_error"))
		return core.Outcome{}, false
	}

	system := body.SystemText()
	if system == "" {
		system = h.defaultSystem
	}

	ctx := core.WithRequestID(c.Request.Context(), c.GetString(requestIDKey))
	ctx, cancel := context.WithTimeout(ctx, h.requestTimeout)
	defer cancel()

	outcome := h.dispatcher.Dispatch(ctx, models.NewOutboundRequest(userText, system, opts))
	if !outcome.OK {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Message: outcome.Err.Error(),
				Type:    string(outcome.Kind),
				Status:  outcome.StatusCode,
			},
			Raw: rawJSON(outcome.RawBody),
		})
		return outcome, false
	}
	return outcome, true
}

// rawJSON 上游响应体原样透传；非 JSON 时以字符串形式返回
func rawJSON(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return json.RawMessage(quoted)
}
