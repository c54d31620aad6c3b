package markdown

// Message keys for the UI chrome the renderer emits.
const (
	MsgLoading      = "widget.loading"
	MsgCopy         = "code.copy"
	MsgOpenLink     = "link.open"
	MsgPreviewImage = "image.preview"
)

var englishMessages = map[string]string{
	MsgLoading:      "Loading...",
	MsgCopy:         "Copy",
	MsgOpenLink:     "Open link",
	MsgPreviewImage: "Preview image",
}

// Localizer resolves a message key into display text. It returns "" for
// keys it does not know, in which case English is used.
type Localizer func(key string) string

func (l Localizer) t(key string) string {
	if l != nil {
		if s := l(key); s != "" {
			return s
		}
	}
	if s, ok := englishMessages[key]; ok {
		return s
	}
	return key
}

// MessageKeys lists every key a Localizer may be asked for.
func MessageKeys() []string {
	return []string{MsgLoading, MsgCopy, MsgOpenLink, MsgPreviewImage}
}
