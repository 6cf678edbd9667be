package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows browser clients on the given origins to call the JSON API.
// It returns nil when no origins are configured; cors.New panics on an
// empty origin list.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return nil
	}
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	})
}
