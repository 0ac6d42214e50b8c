package api

import "github.com/searchktools/minihttp/core"

// Register mounts the application routes on e.
func Register(e *core.Engine, users *UserStore, products *ProductStore) {
	h := NewHandlers(users, products)

	e.GET("/hello", Hello)
	e.GET("/user/:id", LegacyUserHandler)
	e.GET("/old", Redirect)
	e.POST("/echo", Echo)

	u := e.Group("/users")
	u.GET("/", h.ListUsers)
	u.GET("/:id", h.GetUser)
	u.POST("/", h.CreateUser)
	u.DELETE("/:id", h.DeleteUser)

	p := e.Group("/products")
	p.GET("/", h.ListProducts)
	p.GET("/:id/:variant", h.GetProductVariant)
}
