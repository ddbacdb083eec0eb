// Package web serves the HTML welcome page and the API documentation.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/kuitang/notes-api/internal/obs"
	"github.com/kuitang/notes-api/internal/urlutil"
)

//go:embed content
var contentFS embed.FS

// Options configures the documentation pages.
type Options struct {
	Version string

	// BaseURL is used as the OpenAPI server when the request host is unusable.
	BaseURL    string
	TrustProxy bool
}

type pageData struct {
	Title   string
	Version string
	Content template.HTML
}

// Handler serves the pre-rendered pages.
type Handler struct {
	opts    Options
	layout  *template.Template
	welcome template.HTML
	apiDocs template.HTML
	openapi map[string]any
}

// NewHandler renders every embedded page once.
func NewHandler(opts Options) (*Handler, error) {
	layout, err := template.ParseFS(contentFS, "content/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	welcome, err := renderPage("content/welcome.md")
	if err != nil {
		return nil, err
	}
	apiDocs, err := renderPage("content/api-docs.md")
	if err != nil {
		return nil, err
	}

	raw, err := contentFS.ReadFile("content/openapi.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read openapi document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse openapi document: %w", err)
	}
	if info, ok := doc["info"].(map[string]any); ok && opts.Version != "" {
		info["version"] = opts.Version
	}

	return &Handler{
		opts:    opts,
		layout:  layout,
		welcome: welcome,
		apiDocs: apiDocs,
		openapi: doc,
	}, nil
}

// RegisterRoutes registers the page routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.HandleWelcome)
	mux.HandleFunc("GET /api-docs", h.HandleAPIDocs)
	mux.HandleFunc("GET /api-docs/openapi.json", h.HandleOpenAPI)
}

// HandleWelcome serves the landing page.
func (h *Handler) HandleWelcome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{Title: "Notes API", Version: h.opts.Version, Content: h.welcome})
}

// HandleAPIDocs serves the endpoint reference.
func (h *Handler) HandleAPIDocs(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{Title: "Notes API Documentation", Content: h.apiDocs})
}

// HandleOpenAPI serves the OpenAPI document with servers pointing at the
// origin the request came in on.
func (h *Handler) HandleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc := make(map[string]any, len(h.openapi))
	for k, v := range h.openapi {
		doc[k] = v
	}
	origin := urlutil.OriginFromRequest(r, h.opts.BaseURL, h.opts.TrustProxy)
	if origin != "" {
		doc["servers"] = []map[string]string{{"url": origin}}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		obs.From(r.Context()).Warn("openapi_write_failed", "error", err)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.layout.Execute(w, data); err != nil {
		obs.From(r.Context()).Error("page_render_failed", "title", data.Title, "error", err)
	}
}

func renderPage(name string) (template.HTML, error) {
	md, err := contentFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return template.HTML(renderMarkdownContent(md)), nil
}

// renderMarkdownContent converts markdown to sanitized HTML.
func renderMarkdownContent(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse(md)

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	htmlContent := markdown.Render(doc, renderer)

	policy := bluemonday.UGCPolicy()
	policy.AllowElements("pre", "code")
	policy.AllowAttrs("class").OnElements("code", "pre")
	return policy.SanitizeBytes(htmlContent)
}
