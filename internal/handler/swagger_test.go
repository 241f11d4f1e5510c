package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwagger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	DocPath = "../../docs/swagger.json"
	t.Cleanup(func() { DocPath = "docs/swagger.json" })

	router := gin.New()
	SetupSwagger(router)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/swagger/doc.json")
	require.Equal(t, http.StatusOK, w.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Contains(t, doc["paths"], "/obligations/{id}/settlements")

	w = get("/swagger/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")

	DocPath = "missing.json"
	assert.Equal(t, http.StatusNotFound, get("/swagger/doc.json").Code)
}
