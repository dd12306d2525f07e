package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/oladoye/sitesync/pkg/config"
	"github.com/oladoye/sitesync/pkg/model"
)

type webhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// selarWebhook ingests product events pushed by Selar. The merge contract is
// the same as the poll path: dedup and update by externalId.
func (h handler) selarWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, errors.Wrap(model.ErrInvalidRequest, "failed to read webhook body"))
		return
	}

	if h.secret != "" {
		if !validSignature(body, c.GetHeader("X-Selar-Signature"), h.secret) {
			log.Warn("rejected selar webhook with invalid signature")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_signature", "message": "invalid signature"})
			return
		}
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondError(c, errors.Wrapf(model.ErrInvalidRequest, "failed to parse webhook payload: %v", err))
		return
	}

	if event.Event != "product.created" && event.Event != "product.updated" {
		// Acknowledge without effect
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "webhook received", "event": event.Event})
		return
	}

	catalog := h.selarCatalog()
	if catalog == nil || h.selar == nil {
		respondError(c, errors.Wrap(model.ErrConfigurationMissing, "no selar catalog is configured"))
		return
	}

	cand, err := h.selar.Normalize(event.Data, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	item, created, err := h.engine.Ingest(c.Request.Context(), catalog, cand)
	if err != nil {
		log.WithError(err).Error("failed to ingest selar product")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"created": created,
		"item": gin.H{
			"id":        item.ID,
			"title":     item.Title,
			"dateAdded": item.PublishedAt,
		},
	})
}

func (h handler) selarCatalog() *config.Catalog {
	for _, catalog := range h.config.Catalogs {
		if catalog.Provider == "selar" {
			return catalog
		}
	}

	return nil
}

func validSignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return hmac.Equal(provided, mac.Sum(nil))
}
