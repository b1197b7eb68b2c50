package v1

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rkilchmn/openrouter-free-scanner/internal/core/domain"
	"github.com/rkilchmn/openrouter-free-scanner/internal/logger"
	"github.com/rkilchmn/openrouter-free-scanner/internal/proxy"
	"github.com/rkilchmn/openrouter-free-scanner/internal/server/validator"
	"github.com/rkilchmn/openrouter-free-scanner/pkg/api"

	"github.com/gin-gonic/gin/binding"
)

// hop-by-hop and recomputed headers that must not be copied from upstream.
var skipHeaders = map[string]bool{
	"Transfer-Encoding": true,
	"Connection":        true,
	"Content-Length":    true,
	"Keep-Alive":        true,
}

type ChatHandler struct {
	router *proxy.Router
}

func NewChatHandler(router *proxy.Router) *ChatHandler {
	return &ChatHandler{router: router}
}

// CreateCompletion proxies an OpenAI-style chat completion. The
// client-requested model is deliberately ignored: the router substitutes
// its own candidate, which is the whole point of the failover contract.
func (h *ChatHandler) CreateCompletion(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		_ = c.Error(domain.UnauthorizedError("Missing or invalid Authorization header"))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		_ = c.Error(domain.BadRequestError("failed to read request body"))
		return
	}

	// Validate the OpenAI-shaped fields before touching upstream.
	var chatReq api.ChatRequest
	if err := binding.JSON.BindBody(body, &chatReq); err != nil {
		_ = c.Error(domain.ValidationError(validator.ParseValidationError(err)))
		return
	}

	req, err := proxy.ParseRequest(body, auth)
	if err != nil {
		_ = c.Error(domain.BadRequestError("Invalid JSON in request body"))
		return
	}

	result, err := h.router.Route(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	logger.Info("request routed",
		zap.String("requested_model", chatReq.Model),
		zap.String("model", result.Model),
		zap.Int("attempts", result.Attempts))

	copyHeaders(c, result.Header)

	if result.Stream != nil {
		h.relayStream(c, result)
		return
	}

	c.Data(result.Status, contentTypeOf(result.Header), result.Body)
}

func (h *ChatHandler) relayStream(c *gin.Context, result *proxy.Result) {
	defer result.Stream.Close()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(result.Status)
	c.Writer.Flush()

	buf := make([]byte, 4096)
	for {
		n, err := result.Stream.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				return
			}
			c.Writer.Flush()
		}
		if err != nil {
			return
		}
	}
}

func copyHeaders(c *gin.Context, header http.Header) {
	for k, vals := range header {
		if skipHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vals {
			c.Writer.Header().Add(k, v)
		}
	}
}

func contentTypeOf(header http.Header) string {
	if ct := header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/json"
}
