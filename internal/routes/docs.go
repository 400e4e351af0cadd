package routes

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/alaaeddinekamel/gym-management/internal/config"
	"github.com/gofiber/fiber/v2"
	"gopkg.in/yaml.v3"
)

const docsIndexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
  <style>
    body { margin: 0; font-family: system-ui, sans-serif; color: #132019; background: #f6f7f4; }
    main { max-width: 1120px; margin: 0 auto; padding: 40px 20px 64px; }
    h1 { margin: 0 0 8px; }
    p { color: #536258; line-height: 1.6; }
    table { width: 100%; border-collapse: collapse; margin: 24px 0; background: #fff; }
    th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #d8ddd6; font-size: 0.95rem; }
    code { font-family: ui-monospace, monospace; }
    pre { padding: 20px; overflow: auto; border-radius: 12px; background: #0f172a; color: #e2e8f0; font-size: 0.9rem; }
    a { color: #1f6f4a; }
  </style>
</head>
<body>
  <main>
    <h1>{{ .Title }}</h1>
    <p>Version {{ .Version }}. The raw document is served at <a href="/docs/openapi.yaml">/docs/openapi.yaml</a>. Loaded {{ .LoadedAt }}.</p>
    <table>
      <thead><tr><th>Method</th><th>Path</th><th>Summary</th></tr></thead>
      <tbody>
      {{ range .Operations }}<tr><td><code>{{ .Method }}</code></td><td><code>{{ .Path }}</code></td><td>{{ .Summary }}</td></tr>
      {{ end }}</tbody>
    </table>
    <pre>{{ .Spec }}</pre>
  </main>
</body>
</html>
`

type openAPIDocument struct {
	Info struct {
		Title   string `yaml:"title"`
		Version string `yaml:"version"`
	} `yaml:"info"`
	Paths yaml.Node `yaml:"paths"`
}

type docsOperation struct {
	Method  string
	Path    string
	Summary string
}

type docsPageData struct {
	Title      string
	Version    string
	LoadedAt   string
	Operations []docsOperation
	Spec       string
}

func registerDocsRoutes(app fiber.Router, cfg *config.Config) error {
	if !cfg.DocsEnabled() {
		return nil
	}

	spec, err := loadOpenAPISpec()
	if err != nil {
		return fmt.Errorf("load openapi spec: %w", err)
	}

	pageData, err := buildDocsPageData(spec)
	if err != nil {
		return fmt.Errorf("parse openapi spec: %w", err)
	}

	indexTemplate, err := template.New("docs-index").Parse(docsIndexHTML)
	if err != nil {
		return fmt.Errorf("parse docs template: %w", err)
	}

	indexHandler := func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, fiber.MIMETextHTMLCharsetUTF8)
		c.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; base-uri 'none'; form-action 'none'; frame-ancestors 'none'")

		var body bytes.Buffer
		if err := indexTemplate.Execute(&body, pageData); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render api docs")
		}

		return c.Status(fiber.StatusOK).Send(body.Bytes())
	}

	app.Get("/docs", indexHandler)
	app.Get("/docs/", indexHandler)
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, "application/yaml; charset=utf-8")
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="openapi.yaml"`)
		return c.Status(fiber.StatusOK).Send(spec)
	})

	return nil
}

// buildDocsPageData lists operations in document order.
func buildDocsPageData(spec []byte) (docsPageData, error) {
	var doc openAPIDocument
	if err := yaml.Unmarshal(spec, &doc); err != nil {
		return docsPageData{}, err
	}
	if doc.Info.Title == "" {
		return docsPageData{}, fmt.Errorf("info.title is required")
	}

	var operations []docsOperation
	if doc.Paths.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(doc.Paths.Content); i += 2 {
			path := doc.Paths.Content[i].Value
			methods := doc.Paths.Content[i+1]
			if methods.Kind != yaml.MappingNode {
				continue
			}
			for j := 0; j+1 < len(methods.Content); j += 2 {
				if methods.Content[j+1].Kind != yaml.MappingNode {
					continue
				}
				var op struct {
					Summary string `yaml:"summary"`
				}
				if err := methods.Content[j+1].Decode(&op); err != nil {
					return docsPageData{}, fmt.Errorf("%s %s: %w", methods.Content[j].Value, path, err)
				}
				operations = append(operations, docsOperation{
					Method:  strings.ToUpper(methods.Content[j].Value),
					Path:    path,
					Summary: op.Summary,
				})
			}
		}
	}

	return docsPageData{
		Title:      doc.Info.Title,
		Version:    doc.Info.Version,
		LoadedAt:   time.Now().UTC().Format(time.RFC3339),
		Operations: operations,
		Spec:       string(spec),
	}, nil
}

func loadOpenAPISpec() ([]byte, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("resolve source path")
	}

	specPath := filepath.Join(filepath.Dir(currentFile), "..", "..", "docs", "openapi.yaml")
	spec, err := os.ReadFile(specPath)
	if err != nil {
		return nil, err
	}

	return spec, nil
}

func applyDocsBaseHeaders(c *fiber.Ctx, contentType string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store, max-age=0")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "DENY")
	c.Set("Referrer-Policy", "no-referrer")
	c.Set("X-Robots-Tag", "noindex, nofollow")
}
