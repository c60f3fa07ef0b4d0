package apihttp

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"us30bot/internal/bot"
	"us30bot/internal/gateway/notifier"
	"us30bot/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

const (
	telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"
	signalSecretHeader   = "X-Webhook-Secret"
	maxBodyBytes         = 64 << 10
)

type webhookHandlers struct {
	bot     *bot.Service
	replies notifier.TextNotifier
	secret  string
}

func (h *webhookHandlers) authorized(c *gin.Context, header string) bool {
	if h.secret == "" {
		return true
	}
	got := c.GetHeader(header)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}

func readBody(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
		return nil, false
	}
	return body, true
}

// handleTelegram accepts a Telegram update. The reply goes back to the
// originating chat through the notifier; the HTTP response never waits on
// Telegram.
func (h *webhookHandlers) handleTelegram(c *gin.Context) {
	if !h.authorized(c, telegramSecretHeader) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret"})
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}
	if !gjson.ValidBytes(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	msg := gjson.GetBytes(body, "message")
	if !msg.Exists() || !msg.IsObject() {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	chatID := msg.Get("chat.id").String()
	text := msg.Get("text").String()

	reply := h.bot.Handle(c.Request.Context(), bot.Inbound{Source: "telegram", ChatID: chatID, Text: text})
	if reply.Kind != bot.ReplyIgnored && chatID != "" {
		if err := h.replies.SendText(c.Request.Context(), chatID, reply.Text); err != nil {
			logger.Warnf("http: reply to chat %s not queued: %v", chatID, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "kind": reply.Kind})
}

// handleSignal accepts a raw text body or {"text": "..."} from alerting
// tools and answers with the reply inline.
func (h *webhookHandlers) handleSignal(c *gin.Context) {
	if !h.authorized(c, signalSecretHeader) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret"})
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}
	text := string(body)
	if parsed := gjson.ParseBytes(body); gjson.ValidBytes(body) && parsed.IsObject() {
		text = parsed.Get("text").String()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text required"})
		return
	}
	reply := h.bot.Handle(c.Request.Context(), bot.Inbound{Source: "signal", Text: text})
	c.JSON(http.StatusOK, reply)
}
