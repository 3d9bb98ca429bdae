package termhost

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// noMarginStyle removes document margins from the standard dark style.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// helpMarkdown documents the demo and its keys.
func helpMarkdown(keys KeyMap) string {
	var b strings.Builder
	b.WriteString("# relayout demo\n\n")
	b.WriteString("The terminal is the viewport and the shaded box is the layout container. ")
	b.WriteString("Resizing the terminal runs a dispatch cycle unless the height shrank, ")
	b.WriteString("or grew while the container already fills the viewport.\n\n")
	b.WriteString("## Keys\n\n")
	for _, kb := range keys.Bindings() {
		h := kb.Help()
		fmt.Fprintf(&b, "- `%s` %s\n", h.Key, h.Desc)
	}
	return b.String()
}

// renderHelp renders the help text for the given width.
func renderHelp(keys KeyMap, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return "", err
	}
	return r.Render(helpMarkdown(keys))
}
