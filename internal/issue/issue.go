// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	FileNotFoundId Id = iota + 1
	SpecNotFoundId
	SpecParseErrorId
	SpecInvalidId
	MissingParameterId
	FileReferenceFailedId
	GraphStructureId
	DependencyCycleId
	ConfigLoadFailedId
	RegistryToolNotFoundId
	PluginInstallFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation about this issue type
	extLinks []HttpLink  // external links that might be useful for the user
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

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	fileNotFoundIssue = &Issue{
		id: FileNotFoundId,
		mdMsg: `
# File not found!

One of the files given on the command line does not exist or is not readable.

## Things you can try:
- Check the path for typos
- Paths are resolved relative to the current working directory`,
	}

	specNotFoundIssue = &Issue{
		id: SpecNotFoundId,
		mdMsg: `
# No architecture specification given!

stackgraph needs at least one YAML specification describing your services.

## Things you can try:
- Pass one or more specification files:
~~~
$ stackgraph compile shop.yaml payments.yaml
~~~

## Example specification:
~~~yaml
name: shop
version: "1.0"
services:
  api:
    ports:
      target: 8080
      expose: 80
    depends_on: [db]
  db:
    tag: "16"
~~~`,
	}

	specParseErrorIssue = &Issue{
		id: SpecParseErrorId,
		mdMsg: `
# Failed to parse the specification!

The file is not valid YAML.

## Common issues:
- Tabs used for indentation
- Unbalanced quotes or brackets
- A list item mixed into a mapping

## Things you can try:
- Check the error message above for the specific line
- Quote values that contain a colon followed by a space`,
	}

	specInvalidIssue = &Issue{
		id: SpecInvalidId,
		mdMsg: `
# Invalid specification!

The YAML parsed, but it does not match the specification schema.

## Common issues:
- Unknown field names (fields are closed)
- Ports outside 1-65535
- Service names with characters other than letters, digits, '-' and '_'
- An empty subscription URI

## Things you can try:
- Validate the file on its own:
~~~
$ stackgraph validate shop.yaml
~~~`,
	}

	missingParameterIssue = &Issue{
		id: MissingParameterId,
		mdMsg: `
# Required parameter missing!

A service declares a parameter that is required and has no default, and no value was provided.

## Things you can try:
- Provide the value on the command line:
~~~
$ stackgraph compile shop.yaml --param api.DB_PASSWORD=secret
~~~
- Put it in a values file and pass it with --values
- Put it in a dotenv file and pass it with --env-file
- Give the parameter a default in the specification`,
	}

	fileReferenceFailedIssue = &Issue{
		id: FileReferenceFailedId,
		mdMsg: `
# Failed to resolve a file reference!

A parameter value of the form ` + "`file:<path>`" + ` names a file that could not be read.

## Things you can try:
- Relative paths are resolved against the working directory
- Check that the file exists and is readable
- Escape a literal value that starts with "file:" by quoting it differently in your values file`,
	}

	graphStructureIssue = &Issue{
		id: GraphStructureId,
		mdMsg: `
# The dependency graph is inconsistent!

An edge could not be created between two services.

## Common issues:
- ` + "`depends_on`" + ` names a service that does not exist
- A name matches more than one service; use the full ref (` + "`name:tag`" + `) instead
- A service depends on or subscribes to itself
- A subscription has no publisher for its event

## Things you can try:
- Compile with --verbose to see every node that was registered`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

The services form a cycle of dependency edges, so no start order exists.

## Things you can try:
- Review the ` + "`depends_on`" + ` lists of the services named above
- Replace one direction with an event subscription; notification edges never constrain the start order`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your stackgraph configuration file contains errors.

## Things you can try:
- Check the config file syntax (CUE format)
- Reset to the default configuration:
~~~
$ stackgraph config init --force
~~~
- Check STACKGRAPH_* environment variables for invalid values`,
	}

	registryToolNotFoundIssue = &Issue{
		id: RegistryToolNotFoundId,
		mdMsg: `
# Registry tool not found!

Pushing graphs and installing oci:// plugins runs an external registry client, and it is not on your PATH.

## Things you can try:
- Install oras
- Point stackgraph at another client in your config file:
~~~cue
registry: {
	tool: "oras --plain-http"
}
~~~`,
		extLinks: []HttpLink{"https://oras.land/docs/installation"},
	}

	pluginInstallFailedIssue = &Issue{
		id: PluginInstallFailedId,
		mdMsg: `
# Failed to install plugin!

The plugin archive could not be downloaded, verified or extracted.

## Things you can try:
- Check the URL and your network connection
- Verify the --sha256 checksum matches the published archive
- Archives must be gzip-compressed tarballs`,
	}

	issues = map[Id]*Issue{
		fileNotFoundIssue.Id():         fileNotFoundIssue,
		specNotFoundIssue.Id():         specNotFoundIssue,
		specParseErrorIssue.Id():       specParseErrorIssue,
		specInvalidIssue.Id():          specInvalidIssue,
		missingParameterIssue.Id():     missingParameterIssue,
		fileReferenceFailedIssue.Id():  fileReferenceFailedIssue,
		graphStructureIssue.Id():       graphStructureIssue,
		dependencyCycleIssue.Id():      dependencyCycleIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		registryToolNotFoundIssue.Id(): registryToolNotFoundIssue,
		pluginInstallFailedIssue.Id():  pluginInstallFailedIssue,
	}
)

// Values returns every registered issue ordered by ID.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
