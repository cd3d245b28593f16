package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sync"

	"github.com/yuin/goldmark"
)

//go:embed help/*.md
var helpFS embed.FS

var (
	helpMu    sync.Mutex
	helpCache = map[string]template.HTML{}
	markdown  = goldmark.New()
)

// HelpHTML renders the help page for lang, falling back to Japanese.
func HelpHTML(lang string) (template.HTML, error) {
	helpMu.Lock()
	defer helpMu.Unlock()
	if out, ok := helpCache[lang]; ok {
		return out, nil
	}
	src, err := helpFS.ReadFile("help/" + lang + ".md")
	if err != nil {
		src, err = helpFS.ReadFile("help/ja.md")
		if err != nil {
			return "", fmt.Errorf("view: read help: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("view: render help: %w", err)
	}
	// goldmark escapes raw HTML unless WithUnsafe is set
	out := template.HTML(buf.String())
	helpCache[lang] = out
	return out, nil
}
