package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"haiku-api/internal/dispatch"
	"haiku-api/internal/domain"
	mdw "haiku-api/internal/transport/http/middleware"
	resp "haiku-api/internal/transport/http/response"
)

// OpsHandler 把 HTTP 请求交给 Dispatcher：
// body 是单个调用 {"id","op","args"}，或调用数组（批量）
type OpsHandler struct {
	d        *dispatch.Dispatcher
	log      *zap.Logger
	path     string
	priority int
}

// NewOps 挂在 /ops，能调用所有入口
func NewOps(d *dispatch.Dispatcher, l *zap.Logger) *OpsHandler {
	return &OpsHandler{d: d, log: l.Named("ops"), path: "/ops", priority: 10}
}

// NewKind 挂在 /<kinds>，只能调用该资源的入口
func NewKind(d *dispatch.Dispatcher, kind domain.Kind, l *zap.Logger) *OpsHandler {
	return &OpsHandler{
		d:        d.Scoped(kind),
		log:      l.Named(kind.Plural()),
		path:     "/" + kind.Plural(),
		priority: 20,
	}
}

func (h *OpsHandler) Priority() int { return h.priority }

func (h *OpsHandler) MountAPI(g *gin.RouterGroup) {
	g.POST(h.path, h.Call)
	g.GET(h.path, h.Catalog)
}

func (h *OpsHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, resp.OK(h.d.Registry().Catalog()))
}

func (h *OpsHandler) Call(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		if mdw.IsBodyTooLarge(err) {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "request body too large"))
			return
		}
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "read body: "+err.Error()))
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "empty body"))
		return
	}
	ctx := c.Request.Context()

	// 批量
	if body[0] == '[' {
		var calls []dispatch.Call
		if err := decodeStrict(body, &calls); err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "invalid batch: "+err.Error()))
			return
		}
		results, err := h.d.Batch(ctx, calls)
		if err != nil {
			c.JSON(http.StatusOK, resp.FromError(err))
			return
		}
		out := make([]resp.CallResult, len(results))
		for i, r := range results {
			out[i] = toCallResult(r)
		}
		c.JSON(http.StatusOK, resp.OK(out))
		return
	}

	var call dispatch.Call
	if err := decodeStrict(body, &call); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "invalid call: "+err.Error()))
		return
	}
	r := toCallResult(h.d.Dispatch(ctx, call))
	if r.Code != resp.CodeOK {
		c.JSON(http.StatusOK, resp.New(r.Code, r.Msg, r))
		return
	}
	c.JSON(http.StatusOK, resp.OK(r.Data))
}

func toCallResult(r dispatch.Result) resp.CallResult {
	if r.Err == nil {
		data := r.Data
		if data == nil {
			data = struct{}{}
		}
		return resp.CallResult{ID: r.ID, Op: r.Op, Code: resp.CodeOK, Msg: resp.CodeMsgMap[resp.CodeOK], Data: data}
	}
	return resp.CallResult{
		ID:     r.ID,
		Op:     r.Op,
		Code:   resp.CodeOf(r.Err.Kind),
		Msg:    resp.PublicMsg(r.Err),
		Kind:   string(r.Err.Kind),
		Status: r.Err.Status,
		Data:   struct{}{},
	}
}

func decodeStrict(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data")
	}
	return nil
}
