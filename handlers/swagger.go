package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the gallery service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>pdfgallery - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const viewParams = `[
          { "name": "tag", "in": "query", "schema": { "type": "string" }, "description": "case-insensitive substring of the file name (or media description)" },
          { "name": "sortBy", "in": "query", "schema": { "type": "string", "enum": ["filename", "name", "date"] } },
          { "name": "sortDirection", "in": "query", "schema": { "type": "string", "enum": ["asc", "desc"] } },
          { "name": "groupBy", "in": "query", "schema": { "type": "string", "enum": ["none", "week", "month", "year"] } }
        ]`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "pdfgallery", "version": "v1.0.0" },
  "paths": {
    "/api/pdfs": {
      "get": {
        "summary": "List gallery records, flat or grouped",
        "parameters": ` + viewParams + `,
        "responses": { "200": { "description": "array of records, or array of {label, records} when grouped" } }
      },
      "post": {
        "summary": "Upload a PDF into the gallery directory",
        "requestBody": { "content": { "multipart/form-data": { "schema": { "type": "object", "properties": { "file": { "type": "string", "format": "binary" } } } } } },
        "responses": { "201": { "description": "stored record" }, "400": { "description": "invalid name or not a PDF" }, "409": { "description": "name already taken" }, "413": { "description": "too large" } }
      }
    },
    "/api/pdfs/{name}": {
      "delete": {
        "summary": "Delete a PDF and its thumbnail",
        "parameters": [ { "name": "name", "in": "path", "required": true, "schema": { "type": "string" } } ],
        "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" } }
      }
    },
    "/gallery": {
      "get": { "summary": "Rendered gallery grid", "parameters": ` + viewParams + `, "responses": { "200": { "description": "text/html" } } }
    },
    "/assets/pdf-icon.jpg": { "get": { "summary": "Placeholder thumbnail", "responses": { "200": { "description": "image/jpeg" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition format" } } } }
  }
}`
