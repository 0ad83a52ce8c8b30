package driver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusHandler serves read-only monitoring endpoints for a driver.
func StatusHandler(driver PirServerDriver) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/status", func(c *gin.Context) {
		var status Status
		if err := driver.GetStatus(0, &status); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, status)
	})
	router.GET("/records/:index", func(c *gin.Context) {
		var index int
		if err := bindIndex(c, &index); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var rec RecordIndexVal
		if err := driver.GetRecord(index, &rec); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rec)
	})
	return router
}

func bindIndex(c *gin.Context, index *int) error {
	var uri struct {
		Index int `uri:"index" binding:"min=0"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		return err
	}
	*index = uri.Index
	return nil
}
