package main

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/myrjola/fitplan/internal/contexthelpers"
	"github.com/myrjola/fitplan/internal/errors"
)

// findModuleDir locates the directory containing the go.mod file.
func findModuleDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "get working directory")
	}

	for {
		if _, err = os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			break
		}
		dir = parentDir
	}

	return "", os.ErrNotExist
}

// resolveAndVerifyTemplatePath resolves the template path and verifies it.
//
// If the templatePath is empty, it will attempt to find it from the module root.
func resolveAndVerifyTemplatePath(templatePath string) (string, error) {
	var err error
	if templatePath == "" {
		var modulePath string
		if modulePath, err = findModuleDir(); err != nil {
			return "", errors.Wrap(err, "find module dir")
		}
		templatePath = filepath.Join(modulePath, "ui", "templates")
	}
	var stat os.FileInfo
	if stat, err = os.Stat(templatePath); err != nil {
		return "", errors.Wrap(err, "template path not found", slog.String("path", templatePath))
	}
	if !stat.IsDir() {
		return "", errors.New("template path is not a directory", slog.String("path", templatePath))
	}
	return templatePath, nil
}

// renderMarkdownToHTML converts trusted, server generated markdown to HTML.
func (app *application) renderMarkdownToHTML(ctx context.Context, markdown string) template.HTML {
	var buf bytes.Buffer
	if err := app.markdown.Convert([]byte(markdown), &buf); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelError, "convert markdown", errors.SlogError(err))
		return ""
	}
	return template.HTML(buf.String()) //nolint:gosec // goldmark escapes raw HTML by default.
}

func (app *application) templateFuncs(ctx context.Context) template.FuncMap {
	nonce := fmt.Sprintf("nonce=\"%s\"", contexthelpers.CSPNonce(ctx))
	return template.FuncMap{
		"nonce": func() template.HTMLAttr {
			return template.HTMLAttr(nonce) //nolint:gosec // we trust the nonce since it's not provided by user.
		},
		"mdToHTML": func(markdown string) template.HTML {
			return app.renderMarkdownToHTML(ctx, markdown)
		},
	}
}

// render renders ui/templates/pages/{pageName} inside base.gohtml.
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, pageName string, data any) {
	t, err := template.New(pageName).Funcs(app.templateFuncs(r.Context())).
		ParseFS(app.templateFS, "base.gohtml", fmt.Sprintf("pages/%s/*.gohtml", pageName))
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "parse template", slog.String("page", pageName)))
		return
	}

	var buf bytes.Buffer
	if err = t.ExecuteTemplate(&buf, "base", data); err != nil {
		app.serverError(w, r, errors.Wrap(err, "execute template", slog.String("page", pageName)))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
