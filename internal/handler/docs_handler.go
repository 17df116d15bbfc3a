package handler

import (
	"net/http"
	"os"
	"strings"

	"hospital-api/pkg/apierror"
)

// DocsHandler serves the OpenAPI document. A file at specPath wins over the
// copy compiled into the binary, so the document can be edited without a
// rebuild.
type DocsHandler struct {
	specPath string
	embedded []byte
}

func NewDocsHandler(specPath string, embedded []byte) *DocsHandler {
	return &DocsHandler{specPath: strings.TrimSpace(specPath), embedded: embedded}
}

func (h *DocsHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	content := h.embedded
	if h.specPath != "" {
		fromDisk, err := os.ReadFile(h.specPath)
		if err != nil {
			writeError(w, r, apierror.NotFound("openapi document not found", h.specPath))
			return
		}
		content = fromDisk
	}
	if len(content) == 0 {
		writeError(w, r, apierror.NotFound("openapi document not configured", ""))
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (h *DocsHandler) SwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Security-Policy", "default-src 'self'; connect-src 'self' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' 'unsafe-inline' https://unpkg.com; img-src 'self' data: https://validator.swagger.io")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Hospital API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
    <style>body{margin:0;background:#fafafa;}#swagger-ui{max-width:1200px;margin:0 auto;}</style>
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
        deepLinking: true,
        displayRequestDuration: true,
        persistAuthorization: true
      });
    </script>
  </body>
</html>`))
}
