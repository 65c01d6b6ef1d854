package submission

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers the contact form pages
func RegisterPublicRoutes(r gin.IRoutes, handler *Handler) {
	r.GET("/", handler.ShowForm)
	r.POST("/", handler.Submit)
	r.GET("/thanks", handler.Thanks)
}

// RegisterAdminRoutes registers admin submission routes
func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler) {
	submissions := r.Group("/submissions")
	{
		submissions.GET("", handler.AdminList)
		submissions.POST("", handler.AdminAction)
	}
}
