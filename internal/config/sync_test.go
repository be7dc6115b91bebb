// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// extractCUEFields returns the top-level regular fields of a CUE definition.
func extractCUEFields(t *testing.T, val cue.Value) map[string]bool {
	t.Helper()

	fields := make(map[string]bool)
	iter, err := val.Fields(cue.Definitions(false), cue.Optional(true))
	if err != nil {
		t.Fatalf("failed to iterate CUE fields: %v", err)
	}
	for iter.Next() {
		sel := iter.Selector()
		if sel.LabelType().IsHidden() || sel.IsDefinition() {
			continue
		}
		fields[strings.TrimSuffix(sel.String(), "?")] = iter.IsOptional()
	}
	return fields
}

// extractGoJSONTags returns the json tag names of a struct's exported fields.
func extractGoJSONTags(t *testing.T, typ reflect.Type) map[string]bool {
	t.Helper()

	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		t.Fatalf("expected struct type, got %s", typ.Kind())
	}

	fields := make(map[string]bool)
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		fields[name] = true
	}
	return fields
}

func assertFieldsSync(t *testing.T, structName string, cueFields, goFields map[string]bool) {
	t.Helper()

	for field := range cueFields {
		if !goFields[field] {
			t.Errorf("[%s] CUE field %q not found in Go struct (missing JSON tag)", structName, field)
		}
	}
	for field := range goFields {
		if _, exists := cueFields[field]; !exists {
			t.Errorf("[%s] Go JSON tag %q not found in CUE schema (missing CUE field)", structName, field)
		}
	}
}

func lookupDefinition(t *testing.T, defPath string) cue.Value {
	t.Helper()

	schema := cuecontext.New().CompileString(configSchema)
	if schema.Err() != nil {
		t.Fatalf("failed to compile CUE schema: %v", schema.Err())
	}
	def := schema.LookupPath(cue.ParsePath(defPath))
	if def.Err() != nil {
		t.Fatalf("failed to lookup CUE definition %s: %v", defPath, def.Err())
	}
	return def
}

func TestSchemaSync(t *testing.T) {
	t.Parallel()

	tests := []struct {
		def string
		typ reflect.Type
	}{
		{"#Config", reflect.TypeFor[Config]()},
		{"#ManifestConfig", reflect.TypeFor[ManifestConfig]()},
		{"#UIConfig", reflect.TypeFor[UIConfig]()},
	}

	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			t.Parallel()
			assertFieldsSync(t, tt.def, extractCUEFields(t, lookupDefinition(t, tt.def)), extractGoJSONTags(t, tt.typ))
		})
	}
}

// validateCUE unifies cueData with #Config and requires concrete values.
func validateCUE(t *testing.T, cueData string) error {
	t.Helper()

	ctx := cuecontext.New()
	schema := ctx.CompileString(configSchema)
	if schema.Err() != nil {
		t.Fatalf("failed to compile schema: %v", schema.Err())
	}
	user := ctx.CompileString(cueData)
	if user.Err() != nil {
		return fmt.Errorf("CUE compile error: %w", user.Err())
	}
	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("CUE validation error: %w", err)
	}
	return nil
}

func TestSchemaBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"empty", ``, false},
		{"solution", `solution: "src/Demo.sln"`, false},
		{"solution filter as solution", `solution: "src/Demo.SLNF"`, false},
		{"solution wrong extension", `solution: "src/Demo.csproj"`, true},
		{"filter", `filter: "Demo.slnf"`, false},
		{"filter wrong extension", `filter: "Demo.sln"`, true},
		{"path case", `path_case: "insensitive"`, false},
		{"path case unknown", `path_case: "upper"`, true},
		{"empty pane dir", `pane_dir: ""`, true},
		{"max file size", `manifest: max_file_size: 1024`, false},
		{"zero max file size", `manifest: max_file_size: 0`, true},
		{"max file size too large", `manifest: max_file_size: 268435457`, true},
		{"color scheme", `ui: color_scheme: "dark"`, false},
		{"color scheme unknown", `ui: color_scheme: "blue"`, true},
		{"unknown field", `runtime: "native"`, true},
		{"unknown ui field", `ui: interactive: true`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateCUE(t, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateCUE(%q) error = %v, wantErr %v", tt.data, err, tt.wantErr)
			}
		})
	}
}
