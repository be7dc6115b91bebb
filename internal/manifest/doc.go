// SPDX-License-Identifier: MPL-2.0

// Package manifest reads project manifests (MSBuild-style XML project files)
// and extracts their project-reference declarations.
//
// Only one declaration shape is recognized: a grouping element that is a
// direct child of the document root, containing reference elements that carry
// an Include attribute:
//
//	<Project>
//	  <ItemGroup>
//	    <ProjectReference Include="..\Lib\Lib.csproj" />
//	  </ItemGroup>
//	</Project>
//
// Element names are matched on their local name, so namespaced documents
// (xmlns="http://schemas.microsoft.com/developer/msbuild/2003") are handled the
// same way as SDK-style ones. Any other dependency convention is invisible to
// this package.
package manifest
