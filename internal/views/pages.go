package views

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// AuthPage backs signin.tmpl and signup.tmpl. Passwords are never echoed back.
type AuthPage struct {
	Email  string
	Name   string
	Phone  string
	Error  string
	Notice string
}

type HomePage struct {
	Username   string
	List       *ListView
	Popup      *Popup
	Overlay    *Overlay
	Error      string
	CanExtract bool
}

// Templates parses every page template. Page names are the file names, e.g. "home.tmpl".
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"fieldError": func(p *Popup, name string) string {
			if p == nil {
				return ""
			}
			return p.FieldErrors[name]
		},
	}).ParseFS(templateFS, "templates/*.tmpl"))
}
