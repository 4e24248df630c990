package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edgard/zanbot/internal/blacklist"
)

const (
	pageTitle       = "赞我配置"
	pageDescription = "黑名单配置"

	defaultCountWindow = 24 * time.Hour
)

type handler struct {
	deps   Deps
	logger *slog.Logger
}

// configRequest is the body of POST /config. A field is applied only when
// present and a JSON array.
type configRequest struct {
	BlockedGroups json.RawMessage `json:"blockedGroups"`
	BlockedUsers  json.RawMessage `json:"blockedUsers"`
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"code": -1, "message": msg})
}

func (h *handler) configPage(c *gin.Context) {
	c.HTML(http.StatusOK, "config.html", gin.H{
		"Title":       pageTitle,
		"Description": pageDescription,
		"ConfigPath":  "/config",
		"Config":      h.deps.Blacklist.Snapshot(),
	})
}

func (h *handler) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": h.deps.Blacklist.Snapshot()})
}

func (h *handler) postConfig(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var req configRequest
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		if !json.Valid(trimmed) {
			respondError(c, http.StatusBadRequest, "request body is not valid JSON")
			return
		}
		// Any other JSON value carries no fields and is handled like {}.
		if trimmed[0] == '{' {
			if err := json.Unmarshal(trimmed, &req); err != nil {
				respondError(c, http.StatusBadRequest, err.Error())
				return
			}
		}
	}

	var groups, users *[]string
	if ids, ok := blacklist.CoerceIDs(req.BlockedGroups); ok {
		groups = &ids
	}
	if ids, ok := blacklist.CoerceIDs(req.BlockedUsers); ok {
		users = &ids
	}

	if err := h.deps.Blacklist.Update(groups, users); err != nil {
		h.logger.WarnContext(c.Request.Context(), "Failed to save blacklist", "path", h.deps.Blacklist.Path(), "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"code": 0})
}

func (h *handler) getHistory(c *gin.Context) {
	if h.deps.Store == nil {
		respondError(c, http.StatusServiceUnavailable, "like history is disabled")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	records, err := h.deps.Store.GetRecentLikes(c.Request.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Failed to read like history", "error", err)
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": records})
}

func (h *handler) countHistory(c *gin.Context) {
	if h.deps.Store == nil {
		respondError(c, http.StatusServiceUnavailable, "like history is disabled")
		return
	}

	userID := c.Query("user_id")
	if userID == "" {
		respondError(c, http.StatusBadRequest, "user_id is required")
		return
	}
	window := defaultCountWindow
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			respondError(c, http.StatusBadRequest, "window must be a positive duration")
			return
		}
		window = d
	}

	since := time.Now().Add(-window)
	count, err := h.deps.Store.CountLikesSince(c.Request.Context(), userID, since)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Failed to count likes", "user_id", userID, "error", err)
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{
		"userId": userID,
		"since":  since.UTC(),
		"count":  count,
	}})
}

func (h *handler) health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.deps.Status != nil {
		resp["onebot_connected"] = h.deps.Status.Connected()
	}
	if h.deps.Session != nil {
		resp["self_id"] = h.deps.Session.SelfID()
	}
	c.JSON(http.StatusOK, resp)
}
