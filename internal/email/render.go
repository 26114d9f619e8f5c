package email

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltmpl "html/template"
	"io/fs"
	"os"
	texttmpl "text/template"
)

//go:embed templates/*
var embedded embed.FS

const defaultBody = "You have a notification."

// Content is a rendered message body. HTML is empty when the template has
// no HTML variant.
type Content struct {
	Text string
	HTML string
}

// Renderer renders "<id>.txt" and "<id>.html" templates with a context map.
// Templates in Dir, when set, shadow the embedded defaults.
type Renderer struct {
	sources []fs.FS
}

func NewRenderer(dir string) *Renderer {
	base, _ := fs.Sub(embedded, "templates")
	r := &Renderer{}
	if dir != "" {
		r.sources = append(r.sources, os.DirFS(dir))
	}
	r.sources = append(r.sources, base)
	return r
}

// Render falls back to the context's "intro" (or a stock line) when no text
// template exists, and to text-only when the HTML variant is missing or
// fails. Only a broken text template is an error.
func (r *Renderer) Render(id string, data map[string]any) (Content, error) {
	var c Content

	src, err := r.read(id + ".txt")
	switch {
	case errors.Is(err, fs.ErrNotExist):
		c.Text = fallbackText(data)
	case err != nil:
		return Content{}, err
	default:
		t, err := texttmpl.New(id + ".txt").Parse(src)
		if err != nil {
			return Content{}, fmt.Errorf("parse %s.txt: %w", id, err)
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return Content{}, fmt.Errorf("execute %s.txt: %w", id, err)
		}
		c.Text = buf.String()
	}

	if src, err := r.read(id + ".html"); err == nil {
		if t, err := htmltmpl.New(id + ".html").Parse(src); err == nil {
			var buf bytes.Buffer
			if err := t.Execute(&buf, data); err == nil {
				c.HTML = buf.String()
			}
		}
	}
	return c, nil
}

func (r *Renderer) read(name string) (string, error) {
	for _, src := range r.sources {
		b, err := fs.ReadFile(src, name)
		if err == nil {
			return string(b), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fs.ErrNotExist
}

func fallbackText(data map[string]any) string {
	if s, ok := data["intro"].(string); ok && s != "" {
		return s
	}
	return defaultBody
}
