package notifier

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLen keeps rendered text under Telegram's 4096 character cap.
const MaxMessageLen = 3800

// MessageSection is one titled block of a message.
type MessageSection struct {
	Title string
	Lines []string
}

// StructuredMessage is rendered into plain text for any notifier.
type StructuredMessage struct {
	Title     string
	Sections  []MessageSection
	Footer    string
	Timestamp time.Time
}

// Render joins the title, non-empty sections and footer, trimming to
// MaxMessageLen.
func (m StructuredMessage) Render() string {
	var b strings.Builder
	if title := strings.TrimSpace(m.Title); title != "" {
		b.WriteString(title + "\n")
	}
	for _, sec := range m.Sections {
		lines := nonEmpty(sec.Lines)
		if len(lines) == 0 {
			continue
		}
		b.WriteString("\n")
		if title := strings.TrimSpace(sec.Title); title != "" {
			b.WriteString(title + "\n")
		}
		for _, line := range lines {
			b.WriteString("- " + line + "\n")
		}
	}
	if footer := strings.TrimSpace(m.Footer); footer != "" {
		b.WriteString("\n" + footer + "\n")
	}
	if !m.Timestamp.IsZero() {
		b.WriteString(m.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	return Truncate(strings.TrimSpace(b.String()))
}

// Truncate cuts s to MaxMessageLen bytes on a rune boundary.
func Truncate(s string) string {
	if len(s) <= MaxMessageLen {
		return s
	}
	cut := MaxMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func nonEmpty(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if text := strings.TrimSpace(line); text != "" {
			out = append(out, text)
		}
	}
	return out
}
