package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/mithrel/notemark/internal/markdown"
)

func TestMatch(t *testing.T) {
	c := New("")
	assert.Equal(t, language.German, c.Match("de-DE,de;q=0.9,en;q=0.8"))
	assert.Equal(t, language.Chinese, c.Match("zh-CN"))
	assert.Equal(t, language.English, c.Match("fr-FR"))
	assert.Equal(t, language.English, c.Match(""))

	assert.Equal(t, language.German, New("de").Match("not a header;;"))
}

func TestLocalizer(t *testing.T) {
	c := New("")
	l := c.Localizer(language.German)
	assert.Equal(t, "Kopieren", l(markdown.MsgCopy))
	assert.Equal(t, "", l("unknown.key"))

	assert.Equal(t, "复制", c.Localizer(language.Chinese)(markdown.MsgCopy))
}

func TestSprintf(t *testing.T) {
	c := New("")
	assert.Equal(t, "3 Notizen", c.Sprintf(language.German, MsgResults, 3))
	assert.Equal(t, "3 notes", c.Sprintf(language.English, MsgResults, 3))
}

func TestEveryLanguageHasEveryKey(t *testing.T) {
	for _, tag := range supported {
		for _, key := range markdown.MessageKeys() {
			assert.Contains(t, messages[tag], key, "%s missing %s", tag, key)
		}
		assert.Len(t, messages[tag], len(messages[language.English]), tag.String())
	}
}
