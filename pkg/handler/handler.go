// Package handler exposes the catalogs, sync triggers, webhook ingestion and
// the chat/contact relays over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/oladoye/sitesync/pkg/chat"
	"github.com/oladoye/sitesync/pkg/config"
	"github.com/oladoye/sitesync/pkg/model"
	"github.com/oladoye/sitesync/pkg/notify"
	"github.com/oladoye/sitesync/pkg/query"
	"github.com/oladoye/sitesync/pkg/source"
	syncengine "github.com/oladoye/sitesync/pkg/sync"
)

type syncService interface {
	Sync(ctx context.Context, cfg *config.Catalog) (*syncengine.Report, error)
	Ingest(ctx context.Context, cfg *config.Catalog, cand *source.Candidate) (*model.CatalogItem, bool, error)
	Registered(provider string) bool
}

type storage interface {
	Load(name string) (*model.Store, error)
}

type ChatService interface {
	Answer(ctx context.Context, message string, history []chat.Message) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, sub notify.Submission) error
}

type Opts struct {
	// SelarWebhookSecret enables webhook signature validation when set
	SelarWebhookSecret string
}

type handler struct {
	config  *config.Config
	engine  syncService
	storage storage
	chat    ChatService
	notify  Notifier
	selar   *source.Selar
	secret  string
}

func New(cfg *config.Config, engine syncService, store storage, chatSvc ChatService, contact Notifier, opts Opts) http.Handler {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors())

	h := handler{
		config:  cfg,
		engine:  engine,
		storage: store,
		chat:    chatSvc,
		notify:  contact,
		secret:  opts.SelarWebhookSecret,
	}

	// The webhook normalizer is bound to the first selar catalog in config
	for _, catalog := range cfg.Catalogs {
		if catalog.Provider == "selar" {
			h.selar = &source.Selar{Author: catalog.Author, StoreURL: catalog.StoreURL}
			break
		}
	}

	r.GET("/api/ping", h.ping)
	r.GET("/api/catalog/:id", h.catalog)
	r.GET("/api/sync/:id", h.syncStatus)
	r.POST("/api/sync/:id", h.triggerSync)
	r.POST("/api/webhooks/selar", h.selarWebhook)
	r.POST("/api/chat", h.chatMessage)
	r.POST("/api/contact", h.contact)

	return r
}

func (h handler) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h handler) catalog(c *gin.Context) {
	catalog, ok := h.config.Catalogs[c.Param("id")]
	if !ok {
		respondError(c, errors.Wrapf(model.ErrNotFound, "unknown catalog %q", c.Param("id")))
		return
	}

	st, err := h.storage.Load(catalog.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	opts := query.Options{Category: c.Query("category")}

	// A non-integer or non-positive limit degrades to no limit
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			opts.Limit = limit
		}
	}

	items := query.Select(st, opts)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"items":        items,
		"count":        len(items),
		"totalCount":   len(st.Items),
		"lastSyncedAt": syncedAt(st),
	})
}

func (h handler) syncStatus(c *gin.Context) {
	catalog, ok := h.config.Catalogs[c.Param("id")]
	if !ok {
		respondError(c, errors.Wrapf(model.ErrNotFound, "unknown catalog %q", c.Param("id")))
		return
	}

	st, err := h.storage.Load(catalog.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"sourceId":       catalog.SourceID,
		"provider":       catalog.Provider,
		"pollingEnabled": h.engine.Registered(catalog.Provider),
		"lastSyncedAt":   syncedAt(st),
		"totalCount":     len(st.Items),
	})
}

func (h handler) triggerSync(c *gin.Context) {
	catalog, ok := h.config.Catalogs[c.Param("id")]
	if !ok {
		respondError(c, errors.Wrapf(model.ErrNotFound, "unknown catalog %q", c.Param("id")))
		return
	}

	report, err := h.engine.Sync(c.Request.Context(), catalog)
	if err != nil {
		log.WithError(err).Errorf("failed to sync catalog %q", catalog.ID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  report,
	})
}

type chatRequest struct {
	Message string         `json:"message"`
	History []chat.Message `json:"history"`
}

func (h handler) chatMessage(c *gin.Context) {
	if h.chat == nil {
		respondError(c, errors.Wrap(model.ErrConfigurationMissing, "chat is not configured"))
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		respondError(c, errors.Wrap(model.ErrInvalidRequest, "message is required"))
		return
	}

	answer, err := h.chat.Answer(c.Request.Context(), req.Message, req.History)
	if err != nil {
		log.WithError(err).Error("chat request failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"response":  answer,
		"timestamp": time.Now().UTC(),
	})
}

func (h handler) contact(c *gin.Context) {
	if h.notify == nil {
		respondError(c, errors.Wrap(model.ErrConfigurationMissing, "contact relay is not configured"))
		return
	}

	var sub notify.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		respondError(c, errors.Wrap(model.ErrInvalidRequest, "invalid submission"))
		return
	}

	if sub.Name == "" || sub.Email == "" || sub.Message == "" {
		respondError(c, errors.Wrap(model.ErrInvalidRequest, "name, email and message are required"))
		return
	}

	if err := h.notify.Notify(c.Request.Context(), sub); err != nil {
		log.WithError(err).Error("failed to relay contact submission")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func syncedAt(st *model.Store) interface{} {
	if st.LastSyncedAt.IsZero() {
		return nil
	}

	return st.LastSyncedAt
}

func kindOf(err error) (int, string) {
	switch errors.Cause(err) {
	case model.ErrNotFound:
		return http.StatusNotFound, "not_found"
	case model.ErrInvalidRequest:
		return http.StatusBadRequest, "invalid_request"
	case model.ErrConfigurationMissing:
		return http.StatusInternalServerError, "configuration_missing"
	case model.ErrSourceUnavailable:
		return http.StatusBadGateway, "source_unavailable"
	case model.ErrCorruptStore:
		return http.StatusInternalServerError, "corrupt_store"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func respondError(c *gin.Context, err error) {
	status, kind := kindOf(err)
	c.JSON(status, gin.H{"error": kind, "message": err.Error()})
}

// cors allows the statically hosted frontend to call the API directly
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, X-Requested-With, X-Selar-Signature")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
