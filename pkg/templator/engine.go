package templator

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/terabiome/skyvllm/pkg/executor"
)

// funcs are available to every template. Templates that render shell
// command lines must pass user input through shellquote.
var funcs = template.FuncMap{
	"shellquote": executor.ShellQuote,
}

type Engine struct {
	templates map[string]*template.Template
}

func NewEngine() *Engine {
	return &Engine{
		templates: make(map[string]*template.Template),
	}
}

// LoadTemplate registers the template file at path under name. Missing keys
// fail the render instead of printing "<no value>" into a command line.
func (e *Engine) LoadTemplate(name, path string) error {
	tmpl, err := template.New(filepath.Base(path)).Funcs(funcs).Option("missingkey=error").ParseFiles(path)
	if err != nil {
		return fmt.Errorf("failed to load template %s from %s: %w", name, path, err)
	}
	e.templates[name] = tmpl
	return nil
}

// ParseTemplate registers an inline template under name.
func (e *Engine) ParseTemplate(name, text string) error {
	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	e.templates[name] = tmpl
	return nil
}

func (e *Engine) HasTemplate(name string) bool {
	_, exists := e.templates[name]
	return exists
}

func (e *Engine) RenderToBytes(name string, data any) ([]byte, error) {
	tmpl, exists := e.templates[name]
	if !exists {
		return nil, fmt.Errorf("template %s not found", name)
	}

	buf := bytes.NewBuffer([]byte{})
	if err := tmpl.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", name, err)
	}

	return buf.Bytes(), nil
}

func (e *Engine) RenderToString(name string, data any) (string, error) {
	b, err := e.RenderToBytes(name, data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
