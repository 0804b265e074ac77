package httpadapter

import (
	"context"

	"emergencyworldwide/internal/adapter/origin"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const corsAllowMethods = "GET,POST,OPTIONS"
const corsAllowHeaders = "Content-Type"

// applyCORSHeaders answers only listed origins. A wildcard entry keeps the
// response cacheable across origins; otherwise the origin is echoed back.
func applyCORSHeaders(ctx *app.RequestContext, allowed origin.Allowlist) {
	requestOrigin := string(ctx.Request.Header.Peek("Origin"))
	switch {
	case allowed.AllowsAll():
		ctx.Response.Header.Set("Access-Control-Allow-Origin", origin.Wildcard)
	case allowed.Allows(requestOrigin):
		ctx.Response.Header.Set("Access-Control-Allow-Origin", requestOrigin)
		ctx.Response.Header.Add("Vary", "Origin")
	default:
		return
	}
	ctx.Response.Header.Set("Access-Control-Allow-Methods", corsAllowMethods)
	ctx.Response.Header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	ctx.Response.Header.Set("Access-Control-Max-Age", "600")
}

func corsMiddleware(allowed origin.Allowlist) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		applyCORSHeaders(ctx, allowed)
		if string(ctx.Method()) == consts.MethodOptions {
			ctx.AbortWithStatus(consts.StatusNoContent)
			return
		}
		ctx.Next(c)
	}
}
