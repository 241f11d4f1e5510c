package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// DocPath is the OpenAPI document served at /swagger/doc.json.
var DocPath = "docs/swagger.json"

func SetupSwagger(router *gin.Engine) {
	router.GET("/swagger/*any", func(c *gin.Context) {
		switch c.Param("any") {
		case "/doc.json":
			serveDoc(c)
		case "/", "/index.html":
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerUIHTML))
		default:
			c.Redirect(http.StatusMovedPermanently, "/swagger/")
		}
	})
}

func serveDoc(c *gin.Context) {
	raw, err := os.ReadFile(DocPath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "api document not available"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Settlement Engine - API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/swagger/doc.json',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout"
    });
  </script>
</body>
</html>`
