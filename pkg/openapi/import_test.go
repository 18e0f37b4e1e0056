package openapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstoreDoc = `
openapi: "3.0.0"
info:
  title: Petstore
  version: "1.0"
paths:
  /pets:
    get:
      responses:
        "200":
          description: A list of pets
          content:
            application/json:
              schema:
                type: array
                items:
                  type: object
              example:
                - id: 1
                  name: rex
    post:
      responses:
        "201":
          description: Created
          content:
            application/json:
              schema:
                type: object
              example:
                id: 2
  /pets/{petId}:
    get:
      responses:
        "200":
          description: One pet
`

func TestImport(t *testing.T) {
	params, err := Import(context.Background(), []byte(petstoreDoc))
	require.NoError(t, err)
	require.Len(t, params, 3)

	byKey := make(map[string]int, len(params))
	for i, p := range params {
		byKey[p.Method+" "+p.Route] = i
	}

	list := params[byKey["GET pets"]]
	assert.Equal(t, 200, list.Status)
	assert.True(t, list.IsArray)
	items, ok := list.Response.([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	pet, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rex", pet["name"])

	create := params[byKey["POST pets"]]
	assert.Equal(t, 201, create.Status)
	assert.False(t, create.IsArray)

	// No content documented: imports with a null body.
	one := params[byKey["GET pets/petId"]]
	assert.Equal(t, 200, one.Status)
	assert.Nil(t, one.Response)
}

func TestImportRejectsGarbage(t *testing.T) {
	_, err := Import(context.Background(), []byte("not: an: openapi: doc"))
	assert.Error(t, err)
}

func TestImportRejectsEmptyDocument(t *testing.T) {
	doc := `
openapi: "3.0.0"
info:
  title: Empty
  version: "1.0"
paths: {}
`
	_, err := Import(context.Background(), []byte(doc))
	assert.Error(t, err)
}

func TestRouteFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/pets", "pets"},
		{"/pets/{petId}", "pets/petId"},
		{"/", "root"},
		{"/a/b/c", "a/b/c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, routeFromPath(tt.path))
	}
}
