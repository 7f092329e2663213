package response

import "github.com/gin-gonic/gin"

// Success and Error write the envelope third-party integrators rely on:
// the boolean success flag is the authoritative outcome signal, the message
// is human-readable, data is optional.
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	body := gin.H{
		"success": true,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(statusCode, body)
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"message": message,
		"error": gin.H{
			"code": code,
		},
	})
}
