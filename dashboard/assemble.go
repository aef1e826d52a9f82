package dashboard

import (
	"fmt"
	"os"
	"strings"

	"github.com/vizforge-org/vizforge/config"
)

// ============================================================================
// PAGE ASSEMBLY — Static HTML shell
// ============================================================================

// Assemble renders the full dashboard page: header, themed CSS, one Plotly
// CDN include and the figure cards in order.
func Assemble(title string, theme config.Theme, figures []*Figure) (string, error) {
	var cards strings.Builder
	for _, fig := range figures {
		frag, err := fig.Fragment()
		if err != nil {
			return "", err
		}
		cards.WriteString(frag)
		cards.WriteString("\n")
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html lang='en'><head>\n")
	fmt.Fprintf(&b, "<meta charset='utf-8'><title>%s</title>\n", title)
	fmt.Fprintf(&b, "<script src='%s'></script>\n", PlotlyCDN)
	b.WriteString("<style>\n")
	fmt.Fprintf(&b, " body{margin:0;background:%s;font-family:Segoe UI,Arial,sans-serif;color:#0f172a}\n", theme.PageBG)
	fmt.Fprintf(&b, " header{background:%s;color:#fff;padding:1rem 2rem}\n", theme.HeaderBG)
	b.WriteString(" h1{margin:0;font-size:1.8rem;letter-spacing:0.5px}\n")
	b.WriteString(" .grid{display:grid;grid-template-columns:1fr 1fr;gap:1.5rem;padding:1.5rem}\n")
	fmt.Fprintf(&b, " .card{background:%s;border-radius:8px;box-shadow:0 2px 6px rgba(0,0,0,.08);padding:1.25rem}\n", theme.CardBG)
	b.WriteString(" .kpi-grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(180px,1fr));gap:1rem}\n")
	fmt.Fprintf(&b, " .kpi-card{background:%s1a;border:1px solid %s40;border-radius:6px;padding:1.25rem;text-align:center}\n", theme.Accent, theme.Accent)
	fmt.Fprintf(&b, " .kpi-value{display:block;font-size:1.6rem;font-weight:600;color:%s}\n", theme.Accent)
	b.WriteString(" .kpi-label{display:block;font-size:0.9rem;margin-top:0.25rem;color:#475569}\n")
	b.WriteString(" @media(max-width:900px){.grid{grid-template-columns:1fr}}\n")
	b.WriteString("</style></head><body>\n")
	fmt.Fprintf(&b, "<header><h1>%s</h1></header>\n", title)
	b.WriteString("<section class='grid'>\n")
	b.WriteString(cards.String())
	b.WriteString("</section></body></html>\n")

	return b.String(), nil
}

// WriteDashboard writes the assembled page to path.
func WriteDashboard(path, html string) error {
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
