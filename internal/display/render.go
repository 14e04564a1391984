package display

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Renderer turns output text into terminal content for a mode
type Renderer struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
}

// NewRenderer highlights JavaScript with the named chroma style (unknown names fall back)
func NewRenderer(styleName string) *Renderer {
	lexer := lexers.Get("javascript")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	return &Renderer{
		lexer:     chroma.Coalesce(lexer),
		style:     styles.Get(styleName),
		formatter: formatter,
	}
}

// Render returns text unchanged for Plain and highlighted for Styled.
// Highlighting failures degrade to plain text.
func (r *Renderer) Render(mode Mode, text string) string {
	if mode == Plain || text == "" {
		return text
	}

	iterator, err := r.lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}

	var b strings.Builder
	if err := r.formatter.Format(&b, r.style, iterator); err != nil {
		return text
	}
	return b.String()
}
