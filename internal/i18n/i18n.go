// Package i18n picks a display language from Accept-Language and resolves
// the renderer and page labels for it.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/mithrel/notemark/internal/markdown"
)

// Page labels used by the HTTP views.
const (
	MsgSearchTitle = "page.search.title"
	MsgResults     = "page.search.results"
	MsgNoResults   = "page.search.empty"
	MsgBack        = "page.back"
	MsgUpdated     = "page.updated"
)

var supported = []language.Tag{language.English, language.Chinese, language.German}

var matcher = language.NewMatcher(supported)

var messages = map[language.Tag]map[string]string{
	language.English: {
		markdown.MsgLoading:      "Loading...",
		markdown.MsgCopy:         "Copy",
		markdown.MsgOpenLink:     "Open link",
		markdown.MsgPreviewImage: "Preview image",
		MsgSearchTitle:           "Search",
		MsgResults:               "%d notes",
		MsgNoResults:             "No notes found",
		MsgBack:                  "Back",
		MsgUpdated:               "Updated %s",
	},
	language.Chinese: {
		markdown.MsgLoading:      "加载中...",
		markdown.MsgCopy:         "复制",
		markdown.MsgOpenLink:     "打开链接",
		markdown.MsgPreviewImage: "预览图片",
		MsgSearchTitle:           "搜索",
		MsgResults:               "%d 条笔记",
		MsgNoResults:             "没有找到笔记",
		MsgBack:                  "返回",
		MsgUpdated:               "更新于 %s",
	},
	language.German: {
		markdown.MsgLoading:      "Wird geladen...",
		markdown.MsgCopy:         "Kopieren",
		markdown.MsgOpenLink:     "Link öffnen",
		markdown.MsgPreviewImage: "Bildvorschau",
		MsgSearchTitle:           "Suche",
		MsgResults:               "%d Notizen",
		MsgNoResults:             "Keine Notizen gefunden",
		MsgBack:                  "Zurück",
		MsgUpdated:               "Aktualisiert %s",
	},
}

// Catalog is the message catalog for all supported languages.
type Catalog struct {
	cat      *catalog.Builder
	fallback language.Tag
}

// New builds the catalog. fallback is used when nothing in Accept-Language
// matches; an empty or unknown value means English.
func New(fallback string) *Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range messages {
		for key, msg := range msgs {
			_ = b.SetString(tag, key, msg)
		}
	}
	c := &Catalog{cat: b, fallback: language.English}
	if fallback != "" {
		c.fallback = c.Match(fallback)
	}
	return c
}

// Supported lists the languages with translations.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Match returns the supported language closest to an Accept-Language
// header value.
func (c *Catalog) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return c.fallback
	}
	return supported[idx]
}

func (c *Catalog) printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(c.cat))
}

// Localizer adapts the catalog for the renderer.
func (c *Catalog) Localizer(tag language.Tag) markdown.Localizer {
	p := c.printer(tag)
	return func(key string) string {
		return p.Sprintf(message.Key(key, ""))
	}
}

// Sprintf formats the message key in tag's language.
func (c *Catalog) Sprintf(tag language.Tag, key string, args ...any) string {
	return c.printer(tag).Sprintf(message.Key(key, key), args...)
}
