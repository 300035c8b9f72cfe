package middleware

import (
	"github.com/gin-gonic/gin"

	midsec "github.com/Bhawani9828/slack-clone-sub001/middleware/security"
)

type RouteOpt struct {
	IsAuth bool
}

// POST registers a POST route, guarded by the auth middleware when
// the options ask for it.
func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.POST(path, midsec.Middleware(midsec.DefaultOptions()), handler)
	} else {
		r.POST(path, handler)
	}
}

// GET registers a GET route, optionally authenticated.
func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.GET(path, midsec.Middleware(midsec.DefaultOptions()), handler)
	} else {
		r.GET(path, handler)
	}
}
