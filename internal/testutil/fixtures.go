// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loaddeps/loaddeps/pkg/types"
)

// csharpProjectType is the solution project-type GUID for C# projects.
const csharpProjectType = "FAE04EC0-301F-11D3-BF4B-00C04F79EFBC"

// SolutionProject describes one project entry of a generated solution file.
type SolutionProject struct {
	Name string
	// RelPath is the manifest path relative to the solution directory, using
	// backslashes the way Visual Studio writes them.
	RelPath string
	GUID    string
}

// ManifestXML renders an SDK-style project file declaring the given
// project references.
func ManifestXML(includes ...string) string {
	var sb strings.Builder
	sb.WriteString("<Project Sdk=\"Microsoft.NET.Sdk\">\n")
	sb.WriteString("  <PropertyGroup>\n    <TargetFramework>net8.0</TargetFramework>\n  </PropertyGroup>\n")
	if len(includes) > 0 {
		sb.WriteString("  <ItemGroup>\n")
		for _, inc := range includes {
			fmt.Fprintf(&sb, "    <ProjectReference Include=\"%s\" />\n", inc)
		}
		sb.WriteString("  </ItemGroup>\n")
	}
	sb.WriteString("</Project>\n")
	return sb.String()
}

// WriteManifest writes an SDK-style project file at dir/rel declaring the
// given references and returns its absolute path.
func WriteManifest(t testing.TB, dir, rel string, includes ...string) types.ManifestPath {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	MustWriteFile(t, path, ManifestXML(includes...))
	abs, err := filepath.Abs(path)
	if err != nil {
		t.Fatalf("failed to resolve %s: %v", path, err)
	}
	return types.ManifestPath(abs)
}

// WriteSolution writes a Visual Studio solution file at dir/name listing the
// given projects and returns its path.
func WriteSolution(t testing.TB, dir, name string, projects ...SolutionProject) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("\nMicrosoft Visual Studio Solution File, Format Version 12.00\n")
	sb.WriteString("# Visual Studio Version 17\n")
	for _, p := range projects {
		fmt.Fprintf(&sb, "Project(\"{%s}\") = \"%s\", \"%s\", \"{%s}\"\n", csharpProjectType, p.Name, p.RelPath, p.GUID)
		sb.WriteString("EndProject\n")
	}
	sb.WriteString("Global\nEndGlobal\n")

	path := filepath.Join(dir, name)
	MustWriteFile(t, path, sb.String())
	return path
}

// WriteFilter writes a solution filter at dir/name that loads the given
// solution-relative project paths and returns its path.
func WriteFilter(t testing.TB, dir, name, solutionRel string, projects ...string) string {
	t.Helper()
	if projects == nil {
		projects = []string{}
	}
	doc := map[string]any{
		"solution": map[string]any{
			"path":     solutionRel,
			"projects": projects,
		},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("failed to encode filter: %v", err)
	}
	path := filepath.Join(dir, name)
	MustWriteFile(t, path, string(data))
	return path
}
