package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"project_partner_backend/internal/handlers"
)

// SessionCookie names the cookie carrying the client's session identity.
const SessionCookie = "pp_session"

const sessionCookieMaxAge = int(40 * time.Minute / time.Second)

// RouterConfig carries the handlers the router wires up.
type RouterConfig struct {
	Workflow *handlers.WorkflowHandler
}

// NewRouter builds the gin engine with CORS, the session-identity middleware
// and the workflow routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5000",
		},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/", cfg.Workflow.Index)

	workflow := router.Group("/")
	workflow.Use(SessionID())
	workflow.POST("/kickoff_crew", cfg.Workflow.KickoffCrew)
	workflow.POST("/generate_bom", cfg.Workflow.GenerateBOM)
	workflow.POST("/generate_final_assets", cfg.Workflow.GenerateFinalAssets)

	return router
}

// SessionID attaches a per-client session identity, issuing a cookie on first
// contact. State itself lives server-side in the session store.
func SessionID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || id == "" {
			id = uuid.NewString()
			c.SetCookie(SessionCookie, id, sessionCookieMaxAge, "/", "", false, true)
		}
		c.Set(handlers.SessionIDKey, id)
		c.Next()
	}
}
