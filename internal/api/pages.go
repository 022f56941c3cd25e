package api

import (
	"html/template"

	"github.com/gin-gonic/gin"
)

const (
	notFoundPage = "not_found"
	expiredPage  = "expired"
	errorPage    = "error"
)

// pages are the HTML answers of the redirect route, registered on the engine by SetupRoutes.
var pages = template.Must(template.New("pages").Parse(`
{{define "layout_top"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 10%;">
{{end}}
{{define "layout_bottom"}}</body>
</html>
{{end}}
{{define "not_found"}}{{template "layout_top" .}}<h1>Link not found</h1>
<p>The short link <code>{{.Code}}</code> does not exist.</p>
{{template "layout_bottom"}}{{end}}
{{define "expired"}}{{template "layout_top" .}}<h1>Link expired</h1>
<p>The short link <code>{{.Code}}</code> has expired and is no longer available.</p>
{{template "layout_bottom"}}{{end}}
{{define "error"}}{{template "layout_top" .}}<h1>Something went wrong</h1>
<p>Please try again later.</p>
{{template "layout_bottom"}}{{end}}
`))

var pageTitles = map[string]string{
	notFoundPage: "Link not found",
	expiredPage:  "Link expired",
	errorPage:    "Error",
}

func renderPage(c *gin.Context, status int, name, code string) {
	c.HTML(status, name, gin.H{"Title": pageTitles[name], "Code": code})
}
