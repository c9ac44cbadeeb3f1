package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-tracker-web/internal/session"
	"github.com/justsurfingit/job-tracker-web/internal/views"
)

// maxFormSize is the largest application form accepted: a full resume plus the text fields.
const maxFormSize = views.MaxResumeSize + 1<<20

// LimitBody stops reading a request body after n bytes. Reads past the limit fail with *http.MaxBytesError.
func LimitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// NewRouter wires every page. An empty allowedOrigins allows all origins.
func NewRouter(authHandler *AuthHandler, appHandler *ApplicationHandler, store session.Store, allowedOrigins []string) *gin.Engine {
	r := gin.Default()

	config := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
		config.AllowCredentials = true
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	r.SetHTMLTemplate(views.Templates())
	r.MaxMultipartMemory = maxFormSize

	r.GET("/", authHandler.SignInPage)
	r.POST("/", authHandler.SignIn)
	r.GET("/signup", authHandler.SignUpPage)
	r.POST("/signup", authHandler.SignUp)
	r.POST("/logout", authHandler.Logout)

	home := r.Group("/home", RequireSession(store))
	{
		home.GET("", appHandler.Home)
		home.GET("/new", appHandler.New)
		home.GET("/edit/:id", appHandler.Edit)
		home.POST("/applications", LimitBody(maxFormSize), appHandler.Save)
		home.POST("/applications/:id/delete", appHandler.Delete)
		home.POST("/similarity", appHandler.Similarity)
		home.POST("/extract", appHandler.Extract)
	}

	api := r.Group("/api/v1")
	{
		api.GET("/health", HealthCheck)
	}

	return r
}
