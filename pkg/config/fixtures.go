package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/fauxsmith/fauxsmith/pkg/mockauth"
	"github.com/fauxsmith/fauxsmith/pkg/mockdef"
)

// FixtureFile is one seed document: an owner handle plus the mocks and
// auth endpoints to create under it.
type FixtureFile struct {
	// Owner is the account handle the fixtures belong to. The account
	// is created on first use with a generated password.
	Owner string `yaml:"owner"`

	Mocks         []FixtureMock         `yaml:"mocks"`
	AuthEndpoints []FixtureAuthEndpoint `yaml:"authEndpoints"`
}

// FixtureMock mirrors mockdef.Params in YAML form.
type FixtureMock struct {
	Route             string `yaml:"route"`
	Method            string `yaml:"method"`
	Status            int    `yaml:"status"`
	Response          any    `yaml:"response"`
	IsArray           bool   `yaml:"isArray"`
	KeyField          string `yaml:"keyField"`
	FilterEnabled     bool   `yaml:"filterEnabled"`
	PaginationEnabled bool   `yaml:"paginationEnabled"`
	DefaultLimit      int    `yaml:"defaultLimit"`
	Delay             int    `yaml:"delay"`
	Error             bool   `yaml:"error"`
}

// FixtureAuthEndpoint mirrors a mock auth schema in YAML form.
type FixtureAuthEndpoint struct {
	Endpoint string           `yaml:"endpoint"`
	Fields   []mockauth.Field `yaml:"fields"`
}

// Params converts the YAML form to definition params.
func (f FixtureMock) Params() mockdef.Params {
	return mockdef.Params{
		Route:             f.Route,
		Method:            f.Method,
		Status:            f.Status,
		Response:          f.Response,
		IsArray:           f.IsArray,
		KeyField:          f.KeyField,
		FilterEnabled:     f.FilterEnabled,
		PaginationEnabled: f.PaginationEnabled,
		DefaultLimit:      f.DefaultLimit,
		DelayMs:           f.Delay,
		Error:             f.Error,
	}
}

// fixtureSchema validates the document shape before decoding, so a
// typo'd field name fails loudly instead of being silently dropped.
const fixtureSchema = `{
  "type": "object",
  "required": ["owner"],
  "additionalProperties": false,
  "properties": {
    "owner": {"type": "string", "minLength": 1},
    "mocks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["route"],
        "additionalProperties": false,
        "properties": {
          "route": {"type": "string"},
          "method": {"type": "string"},
          "status": {"type": "integer"},
          "response": {},
          "isArray": {"type": "boolean"},
          "keyField": {"type": "string"},
          "filterEnabled": {"type": "boolean"},
          "paginationEnabled": {"type": "boolean"},
          "defaultLimit": {"type": "integer"},
          "delay": {"type": "integer"},
          "error": {"type": "boolean"}
        }
      }
    },
    "authEndpoints": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["endpoint"],
        "additionalProperties": false,
        "properties": {
          "endpoint": {"type": "string"},
          "fields": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name", "type"],
              "additionalProperties": false,
              "properties": {
                "name": {"type": "string"},
                "type": {"enum": ["string", "number", "boolean"]},
                "required": {"type": "boolean"}
              }
            }
          }
        }
      }
    }
  }
}`

var compiledFixtureSchema = jsonschema.MustCompileString("fixture.schema.json", fixtureSchema)

// LoadFixtures loads every fixture file matching the glob pattern.
// Files are returned in path order so seeding is deterministic.
func LoadFixtures(pattern string) ([]*FixtureFile, error) {
	paths, err := expandGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expanding fixture glob %q: %w", pattern, err)
	}
	sort.Strings(paths)

	var files []*FixtureFile
	for _, path := range paths {
		f, err := LoadFixtureFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		files = append(files, f)
	}
	return files, nil
}

// LoadFixtureFile loads and validates one fixture file.
func LoadFixtureFile(path string) (*FixtureFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Validate the raw document against the schema first. The YAML
	// value is round-tripped through encoding/json since the schema
	// validator expects json.Unmarshal types.
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	jsonBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalizing fixture: %w", err)
	}
	var doc any
	if err := json.Unmarshal(jsonBytes, &doc); err != nil {
		return nil, fmt.Errorf("normalizing fixture: %w", err)
	}
	if err := compiledFixtureSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}

	var f FixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding fixture: %w", err)
	}
	return &f, nil
}

// expandGlob expands a glob to matching file paths. Uses doublestar for
// ** support; simple patterns go through filepath.Glob.
func expandGlob(pattern string) ([]string, error) {
	if !strings.Contains(pattern, "**") {
		return filepath.Glob(pattern)
	}
	base, rest := doublestar.SplitPattern(pattern)
	matches, err := doublestar.Glob(os.DirFS(base), rest, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(base, m)
	}
	return paths, nil
}

// GlobBase returns the fixed directory prefix of a glob pattern, used
// as the watch root for hot reload.
func GlobBase(pattern string) string {
	base, _ := doublestar.SplitPattern(pattern)
	if base == "." && !strings.HasPrefix(pattern, ".") {
		// Pattern had no separator before the first meta character.
		return "."
	}
	return base
}
