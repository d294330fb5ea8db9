package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/happypotomus/fitnesstracker/internal/ai"
	"github.com/happypotomus/fitnesstracker/internal/config"
	"github.com/happypotomus/fitnesstracker/internal/store"
)

type App struct {
	cfg   config.Config
	store store.Store
	ai    ai.Client
	loc   *time.Location
	now   func() time.Time
}

func New(cfg config.Config, st store.Store, client ai.Client) *App {
	loc, err := time.LoadLocation(cfg.LocalTimezone)
	if err != nil {
		log.Printf("unknown LOCAL_TIMEZONE %q, using UTC", cfg.LocalTimezone)
		loc = time.UTC
	}
	return &App{cfg: cfg, store: st, ai: client, loc: loc, now: time.Now}
}

func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", a.health)

	api := router.Group(a.cfg.APIPrefix)
	api.Use(a.authMiddleware())

	api.POST("/workouts/parse", a.parseWorkouts)
	api.POST("/workouts", a.createWorkouts)
	api.GET("/workouts", a.listWorkouts)
	api.GET("/workouts/templates", a.listWorkoutTemplates)
	api.PUT("/workouts/templates/:id", a.updateWorkoutTemplate)
	api.POST("/workouts/templates/:id/instantiate", a.instantiateWorkoutTemplate)
	api.POST("/workouts/:id/template", a.saveWorkoutAsTemplate)
	api.DELETE("/workouts/:id", a.deleteWorkout)

	api.POST("/meals/parse", a.parseMeals)
	api.POST("/meals", a.createMeals)
	api.GET("/meals", a.listMeals)
	api.GET("/meals/templates", a.listMealTemplates)
	api.PUT("/meals/templates/:id", a.updateMealTemplate)
	api.POST("/meals/templates/:id/instantiate", a.instantiateMealTemplate)
	api.POST("/meals/:id/template", a.saveMealAsTemplate)
	api.DELETE("/meals/:id", a.deleteMeal)

	api.POST("/chat/query", a.chatQuery)
	api.DELETE("/chat/history", a.clearChatHistory)

	api.GET("/export", a.exportData)
	api.POST("/import", a.importData)

	return router
}

func (a *App) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "fitnesstracker-api",
	})
}

func (a *App) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			writeError(c, http.StatusUnauthorized, "Bearer token required")
			return
		}
		tokenString := strings.TrimSpace(authHeader[len("Bearer "):])
		if tokenString == "" {
			writeError(c, http.StatusUnauthorized, "Bearer token required")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if token.Method == nil || token.Method.Alg() != a.cfg.JWTAlgorithm {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(a.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(c, http.StatusUnauthorized, "Invalid bearer token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeError(c, http.StatusUnauthorized, "Invalid token payload")
			return
		}
		if a.cfg.JWTAudience != "" && !claimHasAudience(claims["aud"], a.cfg.JWTAudience) {
			writeError(c, http.StatusUnauthorized, "Invalid token audience")
			return
		}
		if a.cfg.JWTIssuer != "" {
			issuer, _ := claims["iss"].(string)
			if issuer != a.cfg.JWTIssuer {
				writeError(c, http.StatusUnauthorized, "Invalid token issuer")
				return
			}
		}
		sub, _ := claims["sub"].(string)
		sub = strings.TrimSpace(sub)
		if sub == "" {
			writeError(c, http.StatusUnauthorized, "Token subject missing")
			return
		}

		c.Set("userID", sub)
		c.Next()
	}
}

func claimHasAudience(value any, audience string) bool {
	switch v := value.(type) {
	case string:
		return v == audience
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == audience {
				return true
			}
		}
	case []string:
		for _, item := range v {
			if item == audience {
				return true
			}
		}
	}
	return false
}

func userIDFromContext(c *gin.Context) (string, bool) {
	raw, ok := c.Get("userID")
	if !ok {
		return "", false
	}
	userID, ok := raw.(string)
	return userID, ok && userID != ""
}

func writeError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func mustJSON(c *gin.Context, payload any) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}
