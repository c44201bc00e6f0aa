package status

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type (
	RootResponse struct {
		Message     string `json:"message"`
		Docs        string `json:"docs"`
		StoragePath string `json:"storage_path"`
	}

	HealthResponse struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}

	Route struct {
		Method string `json:"method"`
		Path   string `json:"path"`
	}

	DocsResponse struct {
		Routes []Route `json:"routes"`
	}
)

const DocsPath = "/docs"

func HandleRoot(storagePath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, RootResponse{
			Message:     "JSON Storage API",
			Docs:        DocsPath,
			StoragePath: storagePath,
		})
	}
}

func HandleHealth(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, HealthResponse{Status: "healthy", Version: version})
	}
}

// HandleDocs lists the routes registered on routes, sorted by path.
func HandleDocs(routes chi.Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := []Route{}
		walk := func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if route != "/" {
				route = strings.TrimSuffix(route, "/")
			}
			list = append(list, Route{Method: method, Path: route})
			return nil
		}
		if err := chi.Walk(routes, walk); err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "internal server error"})
			return
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Path != list[j].Path {
				return list[i].Path < list[j].Path
			}
			return list[i].Method < list[j].Method
		})
		render.JSON(w, r, DocsResponse{Routes: list})
	}
}
