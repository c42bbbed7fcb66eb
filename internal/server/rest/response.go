package rest

import "github.com/gin-gonic/gin"

// Every JSON body uses the same envelope:
//
//	{"success": true,  "data": ...}
//	{"success": false, "error": {"code": ..., "message": ...}}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func abortError(c *gin.Context, status int, code, message string) {
	respondError(c, status, code, message)
	c.Abort()
}
