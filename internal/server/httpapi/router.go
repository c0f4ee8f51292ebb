package httpapi

import "github.com/gin-gonic/gin"

// NewRouter assembles the gin engine: an open health endpoint, open
// register/login/refresh routes and a JWT-protected group for everything
// else.
func NewRouter(h *Handlers, secretKey []byte) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api/v1")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/refresh", h.Refresh)

		protected := api.Group("/").Use(AuthMiddleware(secretKey))
		{
			protected.GET("/items", h.ListItems)
			protected.POST("/folders", h.CreateFolder)
			protected.PATCH("/folders/:id", h.RenameItem)
			protected.POST("/items/move", h.MoveItems)
			protected.POST("/items/copy", h.CopyItems)
			protected.POST("/items/delete", h.DeleteItems)

			protected.GET("/search", h.SearchItems)
			protected.GET("/usage", h.Usage)

			protected.POST("/uploads", h.RequestUpload)
			protected.POST("/uploads/commit", h.CommitUpload)
			protected.GET("/files/:id/download", h.DownloadFile)

			protected.DELETE("/account", h.DeleteAccount)
		}
	}

	return router
}
