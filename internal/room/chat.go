package room

import (
	"strings"
	"unicode/utf8"
)

const (
	chatRingSize  = 100
	chatMaxLength = 200
)

// Characters with HTML significance are stripped outright rather than
// escaped; the coordinator never renders chat, clients do.
var htmlStripper = strings.NewReplacer(
	"<", "", ">", "", "&", "", "\"", "", "'", "", "`", "",
)

var profanity = []string{
	"fuck", "shit", "bitch", "asshole", "cunt", "bastard", "dick",
}

// sanitizeChat strips markup characters, masks profanity and clamps the
// message to the protocol limit. Returns "" when nothing displayable
// remains.
func sanitizeChat(msg string) string {
	s := strings.TrimSpace(htmlStripper.Replace(msg))
	if s == "" {
		return ""
	}
	s = maskProfanity(s)
	if len(s) > chatMaxLength {
		// Clamp on a rune boundary so the cut never emits invalid UTF-8.
		cut := chatMaxLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

func maskProfanity(s string) string {
	lower := strings.ToLower(s)
	for _, word := range profanity {
		for {
			idx := strings.Index(lower, word)
			if idx < 0 {
				break
			}
			mask := strings.Repeat("*", len(word))
			s = s[:idx] + mask + s[idx+len(word):]
			lower = lower[:idx] + mask + lower[idx+len(word):]
		}
	}
	return s
}
