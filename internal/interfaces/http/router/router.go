// Package router mounts the billing API on a gin engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// Resource collects the routes of one API resource, e.g. /invoices, before
// they are mounted.
type Resource struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewResource starts a resource rooted at prefix
func NewResource(prefix string) *Resource {
	return &Resource{prefix: prefix}
}

// Use adds middleware to every route of the resource. Nil entries are dropped.
func (r *Resource) Use(middleware ...gin.HandlerFunc) *Resource {
	r.middleware = append(r.middleware, withoutNil(middleware)...)
	return r
}

// Handle adds a route. Nil handlers are dropped so optional guards can be
// passed unconditionally.
func (r *Resource) Handle(method, path string, handlers ...gin.HandlerFunc) *Resource {
	r.routes = append(r.routes, route{method: method, path: path, handlers: withoutNil(handlers)})
	return r
}

func (r *Resource) GET(path string, h ...gin.HandlerFunc) *Resource {
	return r.Handle(http.MethodGet, path, h...)
}

func (r *Resource) POST(path string, h ...gin.HandlerFunc) *Resource {
	return r.Handle(http.MethodPost, path, h...)
}

func (r *Resource) PUT(path string, h ...gin.HandlerFunc) *Resource {
	return r.Handle(http.MethodPut, path, h...)
}

func (r *Resource) DELETE(path string, h ...gin.HandlerFunc) *Resource {
	return r.Handle(http.MethodDelete, path, h...)
}

func (r *Resource) mount(parent *gin.RouterGroup) {
	group := parent.Group(r.prefix, r.middleware...)
	for _, rt := range r.routes {
		group.Handle(rt.method, rt.path, rt.handlers...)
	}
}

// API is the versioned /api/<version> tree.
type API struct {
	engine     *gin.Engine
	version    string
	middleware []gin.HandlerFunc
	resources  []*Resource
}

// NewAPI creates an API under /api/<version>
func NewAPI(engine *gin.Engine, version string) *API {
	return &API{engine: engine, version: version}
}

// BasePath returns the versioned prefix
func (a *API) BasePath() string {
	return "/api/" + a.version
}

// Use adds middleware that runs on every API route but not on the engine's
// own routes such as /health.
func (a *API) Use(middleware ...gin.HandlerFunc) *API {
	a.middleware = append(a.middleware, withoutNil(middleware)...)
	return a
}

// Add queues resources for mounting
func (a *API) Add(resources ...*Resource) *API {
	a.resources = append(a.resources, resources...)
	return a
}

// Mount registers every queued resource on the engine
func (a *API) Mount() {
	group := a.engine.Group(a.BasePath(), a.middleware...)
	for _, r := range a.resources {
		r.mount(group)
	}
}

func withoutNil(handlers []gin.HandlerFunc) []gin.HandlerFunc {
	return lo.Filter(handlers, func(h gin.HandlerFunc, _ int) bool { return h != nil })
}
