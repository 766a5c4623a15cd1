package response

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
)

// Pagination metadata returned with paginated responses.
type Pagination struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	TotalPage   int   `json:"total_page"`
	Size        int   `json:"size"`
	HasNextPage bool  `json:"has_next_page"`
}

// pagedResponse is the envelope for paginated list responses.
type pagedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// OK sends a 200 response. Arrays/slices are wrapped in {data: [...]}.
func OK(c *gin.Context, data interface{}) {
	if data != nil {
		v := reflect.ValueOf(data)
		if v.Kind() == reflect.Slice {
			c.JSON(http.StatusOK, gin.H{"data": data})
			return
		}
	}
	c.JSON(http.StatusOK, data)
}

// Paged sends a paginated response.
func Paged(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, pagedResponse{
		Data:       data,
		Pagination: pagination,
	})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	abortWithError(c, http.StatusBadRequest, "", message)
}

// BadRequestCode sends a 400 error response tagged with a taxonomy code.
func BadRequestCode(c *gin.Context, errCode, message string) {
	abortWithError(c, http.StatusBadRequest, errCode, message)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	abortWithError(c, http.StatusNotFound, "", "not found")
}

// MethodNotAllowed sends a 405 error response.
func MethodNotAllowed(c *gin.Context) {
	abortWithError(c, http.StatusMethodNotAllowed, "", "method not allowed")
}

// Conflict sends a 409 error response tagged with a taxonomy code.
func Conflict(c *gin.Context, errCode, message string) {
	abortWithError(c, http.StatusConflict, errCode, message)
}

// TooManyRequests sends a 429 error response with an optional extra payload
// merged into the body (e.g. a challenge descriptor).
func TooManyRequests(c *gin.Context, errCode, message string, extra gin.H) {
	body := gin.H{
		"ok":      0,
		"code":    http.StatusTooManyRequests,
		"error":   errCode,
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, body)
}

// InternalError sends a 500 error response. The underlying error is never
// exposed to the client; callers are expected to log it.
func InternalError(c *gin.Context) {
	abortWithError(c, http.StatusInternalServerError, "", "internal error")
}

func abortWithError(c *gin.Context, status int, errCode, message string) {
	body := gin.H{"ok": 0, "code": status, "message": message}
	if errCode != "" {
		body["error"] = errCode
	}
	c.AbortWithStatusJSON(status, body)
}
