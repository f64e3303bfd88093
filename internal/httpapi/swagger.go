package httpapi

import (
	"embed"
	"net/http"
)

//go:embed openapi.json
var openapiFS embed.FS

// serveSwaggerSpec serves the embedded OpenAPI document that
// httpSwagger.Handler renders at /docs.
func serveSwaggerSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	data, err := openapiFS.ReadFile("openapi.json")
	if err != nil {
		http.Error(w, "swagger spec unavailable", http.StatusInternalServerError)
		return
	}
	w.Write(data)
}
