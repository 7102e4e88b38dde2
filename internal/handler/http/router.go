package http

import (
	"net/http"

	"inventory-crud/internal/version"
)

// NewRouter mounts every HTTP route of the API.
func NewRouter(products *ProductHandler, health *HealthHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"service": "inventory-crud",
			"version": version.Version,
		})
	})

	mux.HandleFunc("/api/product", products.Product)
	mux.HandleFunc("/api/product/search", products.Search)
	mux.HandleFunc("/api/products", products.Products)

	mux.HandleFunc("/api/test", health.Check)
	mux.HandleFunc("/healthz", health.Check)

	return mux
}
