package httpapi

import (
	"fmt"
	"net/http"
)

// The frontend is served elsewhere; these minimal pages exist so the
// guard's redirect matrix covers real routes in this process too.
func registerPages(mux *http.ServeMux) {
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		page(w, "Ecovia")
	})

	for _, p := range []string{"/login", "/register", "/forgot-password", "/reset-password"} {
		title := p
		mux.HandleFunc(p, func(w http.ResponseWriter, r *http.Request) {
			page(w, title)
		})
	}
	for _, p := range []string{"/dashboard/admin/", "/dashboard/volunteer/", "/dashboard/donor/"} {
		title := p
		mux.HandleFunc(p, func(w http.ResponseWriter, r *http.Request) {
			page(w, title)
		})
	}
}

func page(w http.ResponseWriter, title string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html><title>%s</title>", title)
}
