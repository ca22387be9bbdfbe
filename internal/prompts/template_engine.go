package prompts

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

var varRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// TemplateEngine manages prompt templates
type TemplateEngine struct {
	templates map[string]*Template
	mu        sync.RWMutex
}

// Template represents a prompt template with {{variable}} placeholders
type Template struct {
	Name        string   `json:"name"`
	Content     string   `json:"content"`
	Variables   []string `json:"variables"`
	Description string   `json:"description"`
}

// NewTemplateEngine creates an engine preloaded with the studio templates.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	for _, tmpl := range defaultTemplates() {
		e.RegisterTemplate(tmpl)
	}
	return e
}

// RegisterTemplate adds or replaces a template. Variables are derived from
// the content.
func (e *TemplateEngine) RegisterTemplate(tmpl *Template) {
	tmpl.Variables = ParseTemplateVariables(tmpl.Content)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[tmpl.Name] = tmpl
}

// GetTemplate retrieves a template by name
func (e *TemplateEngine) GetTemplate(name string) (*Template, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	tmpl, ok := e.templates[name]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", name)
	}
	return tmpl, nil
}

// Render fills a template. Every variable the template declares must be
// present in vars.
func (e *TemplateEngine) Render(name string, vars map[string]string) (string, error) {
	tmpl, err := e.GetTemplate(name)
	if err != nil {
		return "", err
	}

	for _, v := range tmpl.Variables {
		if _, ok := vars[v]; !ok {
			return "", fmt.Errorf("template %s: missing variable %s", name, v)
		}
	}

	return varRegex.ReplaceAllStringFunc(tmpl.Content, func(match string) string {
		return vars[varRegex.FindStringSubmatch(match)[1]]
	}), nil
}

// ParseTemplateVariables extracts the sorted, unique variable names.
func ParseTemplateVariables(content string) []string {
	seen := make(map[string]bool)
	vars := []string{}
	for _, m := range varRegex.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			vars = append(vars, m[1])
		}
	}
	sort.Strings(vars)
	return vars
}
