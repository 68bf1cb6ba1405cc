package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag serves a JSON payload under a strong validator.
// The hello endpoint is a favorite uptime-check target, so letting
// pollers revalidate with If-None-Match saves re-sending the body.
func RespondJSONWithETag(c *gin.Context, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		RespondInternal(c, "Could not encode response")
		return
	}

	sum := sha256.Sum256(body)
	tag := `"` + hex.EncodeToString(sum[:16]) + `"`

	c.Header("ETag", tag)

	if etagMatches(c.GetHeader("If-None-Match"), tag) {
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(status, "application/json; charset=utf-8", body)
}

func etagMatches(header, tag string) bool {
	header = strings.TrimSpace(header)

	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		// weak validators (W/"...") count as a match for GET revalidation
		candidate = strings.TrimPrefix(candidate, "W/")

		if candidate == tag {
			return true
		}
	}

	return false
}
