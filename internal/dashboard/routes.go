package dashboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/waybridge/internal/mirror"
	"github.com/zulandar/waybridge/internal/realtime"
	"gorm.io/gorm"
)

// registerRoutes sets up all dashboard API routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, broker *realtime.Broker) {
	api := router.Group("/api")

	api.GET("/jobs", handleJobList(db))
	api.GET("/jobs/summary", handleJobSummary(db))
	api.GET("/jobs/:id", handleJobDetail(db))
	api.GET("/threads", handleThreadList(db))
	api.GET("/threads/:id/messages", handleThreadMessages(db))
	api.POST("/drain", handleDrain(db, broker))
	api.GET("/events", handleSSE(broker))
}

func handleJobList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobs, err := JobList(db, c.Query("status"), c.Query("direction"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"jobs": jobs})
	}
}

func handleJobSummary(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := JobSummary(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func handleJobDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
			return
		}
		job, err := JobDetail(db, uint(id))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if job == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

func handleThreadList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		threads, err := ThreadList(db, c.Query("user"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"threads": threads})
	}
}

func handleThreadMessages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		msgs, found, err := ThreadMessages(db, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": msgs})
	}
}

// handleDrain kicks one synchronous drain pass. The optional limit query
// parameter bounds the batch.
func handleDrain(db *gorm.DB, broker *realtime.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = n
		}

		var pub realtime.Publisher = realtime.NopPublisher{}
		if broker != nil {
			pub = broker
		}
		completed, err := mirror.Drain(db, pub, mirror.DrainOpts{Limit: limit})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "completed": completed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"completed": completed})
	}
}
