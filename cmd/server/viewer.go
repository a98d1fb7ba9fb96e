package main

import (
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// viewerTemplate wraps an uploaded image in a black full-screen page so an
// image entry renders like any other page URL in the kiosk browser.
var viewerTemplate = template.Must(template.New("image_viewer").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
html, body { margin: 0; height: 100%; background: #000; }
img { width: 100%; height: 100%; object-fit: contain; }
</style>
</head>
<body><img src="/uploads/{{.}}" alt=""></body>
</html>
`))

func registerImageViewer(r *gin.Engine) {
	r.GET("/view/image/:filename", func(ctx *gin.Context) {
		// Base strips any traversal attempt out of the path parameter.
		name := filepath.Base(ctx.Param("filename"))
		ctx.Status(http.StatusOK)
		ctx.Header("Content-Type", "text/html; charset=utf-8")
		if err := viewerTemplate.Execute(ctx.Writer, name); err != nil {
			ctx.Status(http.StatusInternalServerError)
		}
	})
}
