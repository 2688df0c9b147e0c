package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"trade-chat-service/internal/clients"
	"trade-chat-service/internal/middleware"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func viewerFromContext(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

func roomIDParam(c *gin.Context) (int64, bool) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return 0, false
	}
	return roomID, true
}

// displayNames resolves user ids to display names, best effort. Name
// enrichment never fails a read path.
func displayNames(ctx context.Context, users clients.UserResolver, ids []string) map[string]string {
	names := map[string]string{}
	if len(ids) == 0 {
		return names
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	resolved, err := users.BulkUsers(lookupCtx, ids)
	if err != nil {
		logrus.WithError(err).Warn("bulk user resolution failed")
		return names
	}
	for id, user := range resolved {
		names[id] = user.DisplayName
	}
	return names
}

func uniqueStrings(ids []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
