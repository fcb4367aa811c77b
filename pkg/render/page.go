package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vango-dev/outlet/pkg/vdom"
)

// PageData contains the data needed to render a complete HTML page.
type PageData struct {
	// Body is the root VNode for the page content
	Body *vdom.VNode

	// Title is the page title
	Title string

	// URL is the canonical URL the body was rendered for. It is exposed to
	// the client as window.__OUTLET_URL__.
	URL string

	// HistorySocket is the WebSocket path the client reports URL changes
	// to. Omitted when empty.
	HistorySocket string

	// Lang is the language attribute for the html element
	// Defaults to "en" if not specified
	Lang string
}

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n<head>\n", escapeAttr(lang)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, `  <meta charset="utf-8">`+"\n"); err != nil {
		return err
	}
	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(page.Title)); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "</head>\n<body>\n"); err != nil {
		return err
	}

	if err := r.RenderToWriter(w, page.Body); err != nil {
		return err
	}

	if err := writeScriptVar(w, "__OUTLET_URL__", page.URL); err != nil {
		return err
	}
	if err := writeScriptVar(w, "__OUTLET_WS__", page.HistorySocket); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n</body>\n</html>\n")
	return err
}

// writeScriptVar assigns value to window[name] as a JS string literal.
// json.Marshal escapes <, > and & so the value cannot close the script.
func writeScriptVar(w io.Writer, name, value string) error {
	if value == "" {
		return nil
	}
	lit, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\n  <script>window.%s=%s;</script>", name, lit)
	return err
}
