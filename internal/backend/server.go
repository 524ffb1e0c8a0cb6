// Package backend is a self-contained implementation of the notifications
// REST contract backed by SQLite. It powers the --demo mode and serves as the
// HTTP fixture for client and store tests.
package backend

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/classify"
	"github.com/nhle/notification-center/internal/model"
)

// Server exposes a Store over HTTP.
type Server struct {
	store  *Store
	token  string
	logger *zap.Logger
}

// NewServer wraps s. When token is non-empty every request must carry it
// as a Bearer credential.
func NewServer(s *Store, token string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{store: s, token: token, logger: logger}
}

// Handler builds the gin engine. Routes are mounted at the root, matching a
// client whose base URL is the server address.
func (srv *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), srv.requireToken())

	n := r.Group("/notifications")
	n.GET("", srv.list)
	n.GET("/unread-count", srv.unreadCount)
	n.POST("/mark-all-read", srv.markAllRead)
	n.PATCH("/:id/read", srv.setRead(true))
	n.PATCH("/:id/unread", srv.setRead(false))
	n.PATCH("/:id/archive", srv.archive)
	n.DELETE("/:id", srv.delete)

	r.GET("/notification-preferences", srv.getPreferences)
	r.PUT("/notification-preferences", srv.putPreferences)

	return r
}

func (srv *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if srv.token == "" {
			c.Next()
			return
		}
		if c.GetHeader("Authorization") != "Bearer "+srv.token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (srv *Server) list(c *gin.Context) {
	var f model.Filter
	if v := c.Query("category"); v != "" {
		f.Category = model.Ptr(classify.NormalizeCategory(v))
	}
	if v := c.Query("priority"); v != "" {
		f.Priority = model.Ptr(classify.NormalizePriority(v))
	}
	for key, dst := range map[string]**bool{"is_read": &f.IsRead, "is_archived": &f.IsArchived} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
			return
		}
		*dst = model.Ptr(b)
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		f.Limit = limit
	}

	list, err := srv.store.List(c.Request.Context(), f)
	if err != nil {
		srv.fail(c, "list", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (srv *Server) unreadCount(c *gin.Context) {
	count, err := srv.store.UnreadCount(c.Request.Context())
	if err != nil {
		srv.fail(c, "unread count", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (srv *Server) markAllRead(c *gin.Context) {
	if err := srv.store.MarkAllRead(c.Request.Context()); err != nil {
		srv.fail(c, "mark all read", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (srv *Server) setRead(read bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := srv.store.SetRead(c.Request.Context(), c.Param("id"), read); err != nil {
			srv.fail(c, "set read", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (srv *Server) archive(c *gin.Context) {
	if err := srv.store.Archive(c.Request.Context(), c.Param("id")); err != nil {
		srv.fail(c, "archive", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (srv *Server) delete(c *gin.Context) {
	if err := srv.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		srv.fail(c, "delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (srv *Server) getPreferences(c *gin.Context) {
	prefs, err := srv.store.Preferences(c.Request.Context())
	if err != nil {
		srv.fail(c, "get preferences", err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (srv *Server) putPreferences(c *gin.Context) {
	var prefs model.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "malformed preferences", "detail": err.Error()})
		return
	}

	fields := map[string]string{}
	for key := range prefs.Categories {
		if !classify.IsKnownCategory(model.Category(key)) {
			fields["categories."+key] = "unknown category"
		}
	}
	if len(fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid preferences", "fields": fields})
		return
	}

	if err := srv.store.SavePreferences(c.Request.Context(), prefs); err != nil {
		srv.fail(c, "save preferences", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (srv *Server) fail(c *gin.Context, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	srv.logger.Error("backend request failed",
		zap.String("op", op),
		zap.String("path", strings.TrimSpace(c.Request.URL.Path)),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
