package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"

	"book-recommender/internal/app"
	"book-recommender/internal/gallery"
	"book-recommender/internal/httputil"
	"book-recommender/internal/recommend"
)

//go:embed templates/index.html.tmpl
var indexHTML string

var pageTemplate = template.Must(template.New("index").Parse(indexHTML))

type pageData struct {
	Query      string
	Category   string
	Tone       string
	Categories []recommend.Category
	Tones      []recommend.Tone
	Searched   bool
	Items      []gallery.Item
}

type recommendRequest struct {
	Query    string `json:"query" validate:"required,min=1,max=1000"`
	Category string `json:"category" validate:"omitempty,max=200"`
	Tone     string `json:"tone" validate:"omitempty,max=20"`
}

func main() {
	deps, err := app.Build(context.Background())
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("dashboard listening", "addr", addr)
	err = http.ListenAndServe(addr, newRouter(deps))
	deps.Log.Error("server failed", "err", err)
	_ = deps.Close()
	os.Exit(1)
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log)

	r.Get("/", pageHandler(deps))
	r.Post("/recommend", recommendFormHandler(deps))
	r.Post("/api/recommend", recommendAPIHandler(deps))
	r.Get("/api/options", optionsHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps))
	return r
}

func newPageData(deps app.Deps) pageData {
	return pageData{
		Category:   string(recommend.CategoryAll),
		Tone:       string(recommend.ToneAll),
		Categories: deps.Recommender.Categories(),
		Tones:      recommend.Tones,
	}
}

func pageHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(deps, w, newPageData(deps))
	}
}

func recommendFormHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			httputil.Fail(deps.Log, w, "invalid form", err, http.StatusBadRequest)
			return
		}
		data := newPageData(deps)
		data.Query = r.PostForm.Get("query")

		q, err := parseQuery(deps, data.Query, r.PostForm.Get("category"), r.PostForm.Get("tone"))
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}
		data.Category = string(q.Category)
		data.Tone = string(q.Tone)

		books, err := deps.Recommender.Recommend(r.Context(), q)
		if err != nil {
			failRecommend(deps, w, err)
			return
		}
		data.Searched = true
		data.Items = gallery.Format(books)
		render(deps, w, data)
	}
}

func recommendAPIHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recommendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		q, err := parseQuery(deps, req.Query, req.Category, req.Tone)
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}

		books, err := deps.Recommender.Recommend(r.Context(), q)
		if err != nil {
			failRecommend(deps, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"category": q.Category,
			"tone":     q.Tone,
			"count":    len(books),
			"items":    gallery.Format(books),
		})
	}
}

func optionsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"categories": deps.Recommender.Categories(),
			"tones":      recommend.Tones,
		})
	}
}

// parseQuery rejects dropdown values outside the known category and tone sets.
func parseQuery(deps app.Deps, text, category, tone string) (recommend.Query, error) {
	c, err := deps.Recommender.ParseCategory(category)
	if err != nil {
		return recommend.Query{}, err
	}
	t, err := recommend.ParseTone(tone)
	if err != nil {
		return recommend.Query{}, err
	}
	return recommend.Query{Text: text, Category: c, Tone: t}, nil
}

func failRecommend(deps app.Deps, w http.ResponseWriter, err error) {
	if errors.Is(err, recommend.ErrEmptyQuery) {
		httputil.Fail(deps.Log, w, "please enter a description of the book", err, http.StatusBadRequest)
		return
	}
	httputil.Fail(deps.Log, w, "recommendation failed", err, http.StatusInternalServerError)
}

func render(deps app.Deps, w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		deps.Log.Error("failed to render page", "err", err)
	}
}
