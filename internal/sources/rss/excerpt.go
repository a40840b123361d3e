package rss

import (
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

var excerptConverter = converter.NewConverter(
	converter.WithEscapeMode("smart"),
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// Excerpt turns a feed description into markdown capped at maxRunes (0 = no cap).
// Text without markup is passed through untouched.
func Excerpt(description string, maxRunes int) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", nil
	}
	md := description
	if strings.Contains(description, "<") {
		converted, err := excerptConverter.ConvertString(description)
		if err != nil {
			return "", err
		}
		md = strings.TrimSpace(converted)
	}
	if maxRunes > 0 && utf8.RuneCountInString(md) > maxRunes {
		runes := []rune(md)
		md = strings.TrimSpace(string(runes[:maxRunes])) + "…"
	}
	return md, nil
}
