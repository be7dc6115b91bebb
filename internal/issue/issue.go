// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	SolutionNotFoundId Id = iota + 1
	SolutionParseErrorId
	ManifestParseErrorId
	ProjectNotFoundId
	ReloadFailedId
	ConfigLoadFailedId
	DependencyCycleId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue markdown with the given glamour style
// ("dark", "light", "notty", "auto" or a style file path).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	solutionNotFoundIssue = &Issue{
		id: SolutionNotFoundId,
		mdMsg: `
# No solution found!

loaddeps needs a solution file (*.sln) or a solution filter (*.slnf) to know
which projects exist and which ones are loaded.

## Where we look (in order of precedence):
1. The --solution / --filter flags
2. solution and filter in your config file
3. The single *.sln file in the current directory

## Things you can try:
- Point at the solution explicitly:
~~~
$ loaddeps --solution path/to/App.sln reload App
~~~

- Or save it in your configuration:
~~~cue
solution: "/src/app/App.sln"
filter:   "/src/app/App.slnf"
~~~`,
	}

	solutionParseErrorIssue = &Issue{
		id: SolutionParseErrorId,
		mdMsg: `
# Failed to read the solution!

The solution file or the solution filter could not be parsed.

## Things you can try:
- Check that the file starts with the "Microsoft Visual Studio Solution File" header
- Check that every Project(...) line has a name, a path and a {GUID}
- Check that the filter is valid JSON with a "solution" object:
~~~json
{
  "solution": {
    "path": "App.sln",
    "projects": ["src\\App\\App.csproj"]
  }
}
~~~`,
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Failed to read a project file!

A project manifest reachable through ProjectReference items is missing or is
not well-formed XML. The reference graph cannot be resolved safely, so no
project was reloaded.

## Things you can try:
- Open the file named above and fix the XML
- Check that every ProjectReference Include points to an existing file:
~~~xml
<ItemGroup>
  <ProjectReference Include="..\Lib\Lib.csproj" />
</ItemGroup>
~~~

- Print the references that can be resolved:
~~~
$ loaddeps closure path/to/App.csproj
~~~`,
	}

	projectNotFoundIssue = &Issue{
		id: ProjectNotFoundId,
		mdMsg: `
# Project not found!

The selected project is not part of the open solution.

## Things you can try:
- List the projects of the solution:
~~~
$ loaddeps projects
~~~

- Select the project by its name or by the path of its manifest:
~~~
$ loaddeps reload App
$ loaddeps reload src/App/App.csproj
~~~`,
	}

	reloadFailedIssue = &Issue{
		id: ReloadFailedId,
		mdMsg: `
# Some projects could not be reloaded!

Each project was attempted independently, so the projects that reloaded
successfully are loaded now. The failed ones are listed in the output pane.

## Things you can try:
- Show the output pane:
~~~
$ loaddeps log
~~~

- Fix the projects listed there and run the reload again; projects that are
  already loaded are skipped
- Run with --verbose to see each reload attempt`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the loaddeps configuration file.

## Configuration file locations:
- Linux: ~/.config/loaddeps/config.cue
- macOS: ~/Library/Application Support/loaddeps/config.cue
- Windows: %APPDATA%\loaddeps\config.cue
- config.cue in the current directory

## Things you can try:
- Create a default configuration:
~~~
$ loaddeps config init
~~~

- Check LOADDEPS_* environment variables
- Compare with the example below:
~~~cue
path_case: "auto"

manifest: {
  max_file_size: 8388608
}

ui: {
  color_scheme: "auto"
  verbose: false
}
~~~`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Project reference cycle detected!

The projects listed above reference each other in a cycle, so there is no
order in which each project is loaded after the projects it references.
Reloading still works; only the dependency order cannot be computed.

## Things you can try:
- Remove one ProjectReference from the cycle
- Inspect the references of each project:
~~~
$ loaddeps graph path/to/App.csproj
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Common causes:
- The solution filter (*.slnf) is read-only
- The output pane directory is not writable

## Things you can try:
- Check file/directory permissions
- Choose another pane directory:
~~~cue
pane_dir: "/tmp/loaddeps-panes"
~~~`,
	}

	issues = map[Id]*Issue{
		solutionNotFoundIssue.Id():   solutionNotFoundIssue,
		solutionParseErrorIssue.Id(): solutionParseErrorIssue,
		manifestParseErrorIssue.Id(): manifestParseErrorIssue,
		projectNotFoundIssue.Id():    projectNotFoundIssue,
		reloadFailedIssue.Id():       reloadFailedIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		dependencyCycleIssue.Id():    dependencyCycleIssue,
		permissionDeniedIssue.Id():   permissionDeniedIssue,
	}
)

// Values returns every catalogued issue ordered by ID.
func Values() []*Issue {
	out := slices.Collect(maps.Values(issues))
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id - b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
