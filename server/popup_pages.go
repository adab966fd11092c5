package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a template from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	content, err := fs.ReadFile(TemplateFilesFS(), name)
	if err != nil {
		return nil, err
	}
	return template.New(name).Parse(string(content))
}

// linkResultPage is the data rendered into the popup result page.
// LinkSessionID and Error are any so an absent value reaches the opener
// as a JavaScript null rather than an empty string.
type linkResultPage struct {
	Success       bool
	Message       string
	LinkSessionID any
	Error         any
	TargetOrigin  string
}

func failurePage(message, linkSessionID, targetOrigin string) linkResultPage {
	page := linkResultPage{
		Message:      message,
		Error:        message,
		TargetOrigin: targetOrigin,
	}
	if linkSessionID != "" {
		page.LinkSessionID = linkSessionID
	}
	return page
}

// renderLinkResult always answers 200: the page is loaded by a browser
// navigation, and the embedded script is the real channel for the
// outcome.
func (s *Server) renderLinkResult(w http.ResponseWriter, tmpl *template.Template, page linkResultPage) {
	w.Header().Set("Content-Type", contentTypeHTML)
	if err := tmpl.Execute(w, page); err != nil {
		log.Err(err).Msg("Failed to render link result page")
	}
}
