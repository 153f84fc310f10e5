package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxLoggedBody caps how much of an MCP request is buffered for logging.
const maxLoggedBody = 64 << 10

// maxLoggedValue truncates long string arguments in logs.
const maxLoggedValue = 200

// personalFields name tool arguments that may carry client personal data.
var personalFields = []string{"contact", "notes", "content", "email", "phone"}

// MCPToolLogger logs MCP JSON-RPC tool calls: the tool, its arguments with
// personal fields redacted, and whether the response carried an error.
// A nil logger disables logging.
func MCPToolLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
			if err != nil {
				logger.Error("Failed to read MCP request body", zap.Error(err))
				http.Error(w, "failed to read request", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

			var call rpcCall
			_ = json.Unmarshal(body, &call)
			if call.Method != "tools/call" {
				next.ServeHTTP(w, r)
				return
			}

			logger.Debug("MCP tool call",
				zap.String("tool", call.Params.Name),
				zap.Any("arguments", redactArguments(call.Params.Arguments)))

			recorder := &bodyRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			fields := []zap.Field{
				zap.String("tool", call.Params.Name),
				zap.Duration("duration", time.Since(start)),
			}
			var reply rpcReply
			if err := json.Unmarshal(recorder.body.Bytes(), &reply); err != nil {
				// Streamed (SSE) replies are not JSON.
				logger.Debug("MCP tool call finished", fields...)
				return
			}
			switch {
			case reply.Error != nil:
				logger.Info("MCP tool call failed", append(fields,
					zap.Int("error_code", reply.Error.Code),
					zap.String("error_message", reply.Error.Message))...)
			case reply.Result.IsError:
				logger.Info("MCP tool returned error", fields...)
			default:
				logger.Debug("MCP tool call finished", fields...)
			}
		})
	}
}

type rpcCall struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type rpcReply struct {
	Result struct {
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// bodyRecorder copies the response body up to maxLoggedBody.
type bodyRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if room := maxLoggedBody - r.body.Len(); room > 0 {
		r.body.Write(b[:min(len(b), room)])
	}
	return r.ResponseWriter.Write(b)
}

func (r *bodyRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// redactArguments hides personal fields and truncates long strings.
func redactArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if isPersonalField(k) {
			out[k] = "[REDACTED]"
			continue
		}
		if s, ok := v.(string); ok && len(s) > maxLoggedValue {
			out[k] = s[:maxLoggedValue] + "..."
			continue
		}
		out[k] = v
	}
	return out
}

func isPersonalField(key string) bool {
	key = strings.ToLower(key)
	for _, f := range personalFields {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}
