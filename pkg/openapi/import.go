// Package openapi converts OpenAPI 3 documents into mock definition
// params, so an existing API contract can seed a workspace in one call.
package openapi

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/fauxsmith/fauxsmith/pkg/mockdef"
)

// Import parses an OpenAPI 3 document (JSON or YAML) and returns one
// mock definition params per documented operation. Operations without a
// usable response payload still import, with a null body.
func Import(ctx context.Context, doc []byte) ([]mockdef.Params, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	spec, err := loader.LoadFromData(doc)
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}
	if err := spec.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	var params []mockdef.Params
	for _, path := range sortedPaths(spec) {
		item := spec.Paths.Value(path)
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			status, body, isArray := exampleResponse(op)
			params = append(params, mockdef.Params{
				Route:    routeFromPath(path),
				Method:   method,
				Status:   status,
				Response: body,
				IsArray:  isArray,
			})
		}
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("document contains no operations")
	}
	return params, nil
}

func sortedPaths(spec *openapi3.T) []string {
	paths := make([]string, 0, spec.Paths.Len())
	for p := range spec.Paths.Map() {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// routeFromPath flattens an OpenAPI path into a route slug: leading
// slash dropped, template parameters like {id} kept as literal segments.
func routeFromPath(path string) string {
	route := strings.Trim(path, "/")
	route = strings.ReplaceAll(route, "{", "")
	route = strings.ReplaceAll(route, "}", "")
	if route == "" {
		route = "root"
	}
	return route
}

// exampleResponse picks the operation's best response: the lowest 2xx
// status, its example payload if one is declared, and whether the schema
// describes an array.
func exampleResponse(op *openapi3.Operation) (status int, body any, isArray bool) {
	status = 200
	if op.Responses == nil {
		return status, nil, false
	}

	code := lowestSuccessCode(op)
	if code == 0 {
		return status, nil, false
	}
	status = code

	ref := op.Responses.Status(code)
	if ref == nil || ref.Value == nil {
		return status, nil, false
	}

	media := ref.Value.Content.Get("application/json")
	if media == nil {
		return status, nil, false
	}

	if media.Example != nil {
		body = media.Example
	} else if media.Schema != nil && media.Schema.Value != nil && media.Schema.Value.Example != nil {
		body = media.Schema.Value.Example
	}

	if media.Schema != nil && media.Schema.Value != nil {
		isArray = media.Schema.Value.Type.Is("array")
	}
	if _, ok := body.([]any); ok {
		isArray = true
	}
	return status, body, isArray
}

func lowestSuccessCode(op *openapi3.Operation) int {
	lowest := 0
	for codeStr := range op.Responses.Map() {
		code, err := strconv.Atoi(codeStr)
		if err != nil || code < 200 || code > 299 {
			continue
		}
		if lowest == 0 || code < lowest {
			lowest = code
		}
	}
	return lowest
}
