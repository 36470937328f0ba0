package routes

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"shg-finance/docs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pathParam = regexp.MustCompile(`:(\w+)`)

// every route mounted under /api must appear in the served OpenAPI document
func TestSwaggerDocumentCoversRoutes(t *testing.T) {
	a := newAPI(t)

	var doc struct {
		BasePath string                            `json:"basePath"`
		Paths    map[string]map[string]interface{} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc))
	assert.Equal(t, "/", doc.BasePath)

	checked := 0
	for _, r := range a.app.GetRoutes(true) {
		if r.Method == http.MethodHead || !strings.HasPrefix(r.Path, "/api") {
			continue
		}
		path := strings.TrimSuffix(pathParam.ReplaceAllString(r.Path, "{$1}"), "/")
		ops, ok := doc.Paths[path]
		if !assert.True(t, ok, "undocumented path %s", path) {
			continue
		}
		assert.Contains(t, ops, strings.ToLower(r.Method), "undocumented %s %s", r.Method, path)
		checked++
	}
	assert.GreaterOrEqual(t, checked, 50)

	// mounted at the root, outside /api
	assert.Contains(t, doc.Paths, "/health")
	assert.NotContains(t, doc.Paths, "/api/health")
}
