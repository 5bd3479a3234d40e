package discord

import (
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

const (
	embedColor = 0x5865F2

	// MaxEmbedDescription is Discord's limit on embed descriptions.
	MaxEmbedDescription = 4096
	// MaxOptionText bounds select menu labels and descriptions.
	MaxOptionText = 100
)

// ScheduleEmbed wraps the weekly report in an embed, cutting it to the
// description limit.
func ScheduleEmbed(title, report string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: Truncate(report, MaxEmbedDescription),
		Color:       embedColor,
	}
}

// Truncate cuts s to at most max runes, ending with "…" when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
