package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/carhire/carhire/internal/handler/dto"
	"github.com/carhire/carhire/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names. Each is rendered inside templates/layout.html.
const (
	pageHome         = "home"
	pageLogin        = "login"
	pageSignup       = "signup"
	pageCars         = "cars"
	pageRentals      = "rentals"
	pageAdminCars    = "admin_cars"
	pageAdminRentals = "admin_rentals"
	pageError        = "error"
)

var pageNames = []string{
	pageHome, pageLogin, pageSignup, pageCars, pageRentals,
	pageAdminCars, pageAdminRentals, pageError,
}

// Page is the data passed to every template.
type Page struct {
	Title   string
	Session *model.Session
	Flash   *Flash

	// Form state for re-rendered forms.
	Error string
	Form  dto.FormValues

	Cars    []dto.CarView
	Rentals []dto.RentalView
	Ongoing []dto.RentalView

	// Error page message.
	Message string
}

// Views holds the parsed page templates.
type Views struct {
	pages map[string]*template.Template
}

// NewViews parses the embedded templates.
func NewViews() (*Views, error) {
	v := &Views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		v.pages[name] = tmpl
	}
	return v, nil
}

// Render executes page name into a buffer and writes it with status.
// Nothing is written when execution fails. Write errors are ignored.
func (v *Views) Render(w http.ResponseWriter, status int, name string, page *Page) error {
	tmpl, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}
