package apihttp

import (
	"net/http"
	"strconv"

	"us30bot/internal/book"
	"us30bot/internal/signal"

	"github.com/gin-gonic/gin"
)

const (
	defaultJournalLimit = 50
	maxListLimit        = 500
)

type apiHandlers struct {
	book *book.Book
}

func (h *apiHandlers) register(group *gin.RouterGroup) {
	group.GET("/status", h.handleStatus)
	group.GET("/stats", h.handleStats)
	group.GET("/signals", h.handleSignals)
	group.GET("/zones", h.handleZones)
	group.GET("/journal", h.handleJournal)
}

func queryLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

func (h *apiHandlers) handleStatus(c *gin.Context) {
	snap := h.book.Snapshot()
	view := snap.Status()
	c.JSON(http.StatusOK, gin.H{
		"symbol":    snap.Symbol,
		"openPrice": snap.OpenPrice,
		"long":      view.Long,
		"short":     view.Short,
		"count":     view.Count(),
		"score":     h.book.Score(),
		"version":   snap.Version,
		"updatedAt": snap.UpdatedAt,
	})
}

func (h *apiHandlers) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.book.Snapshot().Stats())
}

func (h *apiHandlers) handleSignals(c *gin.Context) {
	snap := h.book.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"signals": snap.LastSignals(queryLimit(c, signal.DefaultListLimit)),
		"score":   h.book.Score(),
	})
}

func (h *apiHandlers) handleZones(c *gin.Context) {
	set, ok := h.book.Snapshot().Zones()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "opening price not set"})
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *apiHandlers) handleJournal(c *gin.Context) {
	entries, err := h.book.Journal(c.Request.Context(), queryLimit(c, defaultJournalLimit))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
