package panel

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/panel.html"))

// View is everything the page needs. Notice, when set, replaces the state banner
// (used for seeding results).
type View struct {
	Shop     string
	APIKey   string
	IDToken  string
	Services []shopify.CarrierService
	State    State
	Notice   *Banner
}

func (v View) Banner() *Banner {
	if v.Notice != nil {
		return v.Notice
	}
	return v.State.Banner()
}

func Render(w io.Writer, v View) error {
	if err := pageTmpl.Execute(w, v); err != nil {
		return fmt.Errorf("render panel: %w", err)
	}
	return nil
}
