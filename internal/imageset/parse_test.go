package imageset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleConfig = `kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  platform:
    channels:
      - name: stable-4.10
        type: ocp
    graph: true
  operators:
    - catalog: registry.example.com/redhat/catalog:v1
      packages:
        - name: some-operator
          channels:
            - name: stable
              minVersion: "1.0.0"
  additionalImages:
    - name: registry.example.com/extra:latest
`

// exportAll lets cmp look inside Optional.
var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

func TestLoadAndParseExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imageset-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(exampleConfig), 0o644))

	doc, err := LoadAndParse(path)
	require.NoError(t, err)

	want := &Document{
		Kind:       "ImageSetConfiguration",
		APIVersion: "v1alpha1",
		Mirror: Mirror{
			Platform: Some(Platform{
				Channels: []Channel{{Name: "stable-4.10", Type: "ocp"}},
				Graph:    true,
			}),
			Operators: Some([]Operator{{
				Catalog: "registry.example.com/redhat/catalog:v1",
				Packages: Some([]Package{{
					Name: "some-operator",
					Channels: Some([]IncludeChannel{{
						Name:       "stable",
						MinVersion: Some("1.0.0"),
					}}),
				}}),
			}}),
			AdditionalImages: Some([]Image{{Name: "registry.example.com/extra:latest"}}),
		},
	}
	if diff := cmp.Diff(want, doc, exportAll); diff != "" {
		t.Errorf("LoadAndParse() mismatch (-want +got):\n%s", diff)
	}

	platform, ok := doc.Mirror.Platform.Get()
	require.True(t, ok)
	assert.True(t, platform.Graph)
	require.Len(t, platform.Channels, 1)
	assert.Equal(t, "stable-4.10", platform.Channels[0].Name)

	ops, ok := doc.Mirror.Operators.Get()
	require.True(t, ok)
	require.Len(t, ops, 1)
	pkgs, ok := ops[0].Packages.Get()
	require.True(t, ok)
	require.Len(t, pkgs, 1)
	chs, ok := pkgs[0].Channels.Get()
	require.True(t, ok)
	assert.Equal(t, "1.0.0", chs[0].MinVersion.OrElse(""))
	assert.False(t, chs[0].MaxVersion.IsSet())
	assert.False(t, chs[0].MinBundle.IsSet())

	assert.False(t, doc.Mirror.Release.IsSet())
	assert.False(t, doc.Mirror.Helm.IsSet())
}

func TestParseDeterministic(t *testing.T) {
	a, err := Parse(exampleConfig)
	require.NoError(t, err)
	b, err := Parse(exampleConfig)
	require.NoError(t, err)

	if diff := cmp.Diff(a, b, exportAll); diff != "" {
		t.Errorf("parsing twice differs (-first +second):\n%s", diff)
	}
}

func TestParseEmptyMirror(t *testing.T) {
	doc, err := Parse("kind: ImageSetConfiguration\napiVersion: v1alpha1\nmirror: {}\n")
	require.NoError(t, err)

	m := doc.Mirror
	assert.False(t, m.Platform.IsSet(), "platform")
	assert.False(t, m.Release.IsSet(), "release")
	assert.False(t, m.Operators.IsSet(), "operators")
	assert.False(t, m.AdditionalImages.IsSet(), "additionalImages")
	assert.False(t, m.Helm.IsSet(), "helm")
}

func TestParsePresentButEmpty(t *testing.T) {
	doc, err := Parse(`kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  release: ""
  operators: []
  additionalImages: []
  helm: {}
`)
	require.NoError(t, err)

	m := doc.Mirror
	release, ok := m.Release.Get()
	assert.True(t, ok)
	assert.Equal(t, "", release)

	ops, ok := m.Operators.Get()
	assert.True(t, ok)
	assert.Empty(t, ops)

	imgs, ok := m.AdditionalImages.Get()
	assert.True(t, ok)
	assert.Empty(t, imgs)

	assert.True(t, m.Helm.IsSet())
	assert.False(t, m.Platform.IsSet())
}

func TestParseNullOptionalIsAbsent(t *testing.T) {
	doc, err := Parse(`kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  release: ~
  platform: null
  helm:
  operators:
    - catalog: registry.example.com/catalog:v1
      packages: ~
`)
	require.NoError(t, err)

	m := doc.Mirror
	assert.False(t, m.Release.IsSet())
	assert.False(t, m.Platform.IsSet())
	assert.False(t, m.Helm.IsSet())

	ops, ok := m.Operators.Get()
	require.True(t, ok)
	require.Len(t, ops, 1)
	assert.False(t, ops[0].Packages.IsSet(), "null packages means every package")
}

func TestParseEmptyStringsAccepted(t *testing.T) {
	doc, err := Parse("kind: \"\"\napiVersion: ''\nmirror: {}\n")
	require.NoError(t, err)
	assert.Equal(t, "", doc.Kind)
	assert.Equal(t, "", doc.APIVersion)
}

func TestParsePreservesVersionStrings(t *testing.T) {
	doc, err := Parse(`kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  operators:
    - catalog: registry.example.com/catalog:v1
      packages:
        - name: pkg
          minVersion: 1.10
          maxVersion: "  2.0.0  "
          minBundle: pkg.v1.2.3
          channels:
            - name: stable
              minVersion: 1.0.0-rc.1+build
              maxVersion: 010
`)
	require.NoError(t, err)

	ops, _ := doc.Mirror.Operators.Get()
	pkgs, _ := ops[0].Packages.Get()
	pkg := pkgs[0]
	assert.Equal(t, Some("1.10"), pkg.MinVersion)
	assert.Equal(t, Some("  2.0.0  "), pkg.MaxVersion)
	assert.Equal(t, Some("pkg.v1.2.3"), pkg.MinBundle)

	chs, _ := pkg.Channels.Get()
	assert.Equal(t, Some("1.0.0-rc.1+build"), chs[0].MinVersion)
	assert.Equal(t, Some("010"), chs[0].MaxVersion)
}

func TestParseMinAboveMaxAccepted(t *testing.T) {
	doc, err := Parse(`kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  operators:
    - catalog: registry.example.com/catalog:v1
      packages:
        - name: pkg
          minVersion: "9.0.0"
          maxVersion: "1.0.0"
`)
	require.NoError(t, err)
	ops, _ := doc.Mirror.Operators.Get()
	pkgs, _ := ops[0].Packages.Get()
	assert.Equal(t, "9.0.0", pkgs[0].MinVersion.OrElse(""))
	assert.Equal(t, "1.0.0", pkgs[0].MaxVersion.OrElse(""))
}

func TestParseKeepsOrderAndUnknownValues(t *testing.T) {
	doc, err := Parse(`kind: ImageSetConfiguration
apiVersion: v1alpha1
unknownTopLevel: ignored
mirror:
  platform:
    architectures: [amd64]
    channels:
      - name: stable-4.12
        type: okd
      - name: fast-4.11
        type: something-new
      - name: candidate-4.13
        type: ocp
    graph: false
`)
	require.NoError(t, err)

	p, ok := doc.Mirror.Platform.Get()
	require.True(t, ok)
	assert.False(t, p.Graph)

	var got []string
	for _, c := range p.Channels {
		got = append(got, c.Name+"/"+c.Type)
	}
	assert.Equal(t, []string{"stable-4.12/okd", "fast-4.11/something-new", "candidate-4.13/ocp"}, got)
}

func TestParseAnchorsAndMergeKeys(t *testing.T) {
	doc, err := Parse(`kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  platform:
    channels:
      - &base
        name: stable-4.10
        type: ocp
      - <<: *base
        name: stable-4.11
    graph: true
`)
	require.NoError(t, err)

	p, _ := doc.Mirror.Platform.Get()
	assert.Equal(t, []Channel{
		{Name: "stable-4.10", Type: "ocp"},
		{Name: "stable-4.11", Type: "ocp"},
	}, p.Channels)
}

func TestParseMissingRequired(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		record string
		field  string
		line   int
	}{{
		name:   "kind",
		input:  "apiVersion: v1alpha1\nmirror: {}\n",
		record: "Document",
		field:  "kind",
		line:   1,
	}, {
		name:   "apiVersion",
		input:  "kind: ImageSetConfiguration\nmirror: {}\n",
		record: "Document",
		field:  "apiVersion",
		line:   1,
	}, {
		name:   "mirror",
		input:  "kind: ImageSetConfiguration\napiVersion: v1alpha1\n",
		record: "Document",
		field:  "mirror",
		line:   1,
	}, {
		name:   "null kind",
		input:  "kind: ~\napiVersion: v1alpha1\nmirror: {}\n",
		record: "Document",
		field:  "kind",
		line:   1,
	}, {
		name:   "null mirror",
		input:  "kind: ImageSetConfiguration\napiVersion: v1alpha1\nmirror:\n",
		record: "Document",
		field:  "mirror",
		line:   1,
	}, {
		name: "platform graph",
		input: `kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  platform:
    channels:
      - name: stable-4.10
        type: ocp
`,
		record: "Platform",
		field:  "graph",
		line:   5,
	}, {
		name: "platform channels",
		input: `kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  platform:
    graph: true
`,
		record: "Platform",
		field:  "channels",
		line:   5,
	}, {
		name: "channel type",
		input: `kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  platform:
    graph: true
    channels:
      - name: stable-4.10
`,
		record: "Channel",
		field:  "type",
		line:   7,
	}, {
		name: "operator catalog",
		input: `kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  operators:
    - packages: []
`,
		record: "Operator",
		field:  "catalog",
		line:   5,
	}, {
		name: "package name",
		input: `kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  operators:
    - catalog: registry.example.com/catalog:v1
      packages:
        - minVersion: "1.0.0"
`,
		record: "Package",
		field:  "name",
		line:   7,
	}, {
		name: "include channel name",
		input: `kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  operators:
    - catalog: registry.example.com/catalog:v1
      packages:
        - name: pkg
          channels:
            - minVersion: "1.0.0"
`,
		record: "IncludeChannel",
		field:  "name",
		line:   9,
	}, {
		name: "image name",
		input: `kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  additionalImages:
    - name: ~
`,
		record: "Image",
		field:  "name",
		line:   5,
	}, {
		name: "null sequence item",
		input: `kind: ImageSetConfiguration
apiVersion: v1alpha1
mirror:
  additionalImages:
    - name: registry.example.com/extra:latest
    - ~
`,
		record: "Mirror",
		field:  "additionalImages[1]",
		line:   6,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input)
			require.Error(t, err)
			assert.Nil(t, doc)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.True(t, errors.Is(err, ErrMissingField), "errors.Is(%v, ErrMissingField)", err)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.record, fe.Record)
			assert.Equal(t, tt.field, fe.Field)
			assert.Equal(t, tt.line, fe.Line)
			assert.Equal(t, tt.line, pe.Line)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestParseTypeMismatch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{{
		name:  "string instead of sequence",
		input: "kind: ImageSetConfiguration\napiVersion: v1alpha1\nmirror:\n  operators: registry.example.com/catalog:v1\n",
		line:  4,
	}, {
		name:  "sequence instead of string",
		input: "kind: ImageSetConfiguration\napiVersion: v1alpha1\nmirror:\n  release: [a, b]\n",
		line:  4,
	}, {
		name:  "non-boolean graph",
		input: "kind: ImageSetConfiguration\napiVersion: v1alpha1\nmirror:\n  platform:\n    channels: []\n    graph: sometimes\n",
		line:  6,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input)
			assert.Nil(t, doc)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, err.Error(), "cannot unmarshal")
			assert.Equal(t, tt.line, pe.Line)
			assert.False(t, errors.Is(err, ErrMissingField))
		})
	}
}

func TestParseWrongRecordKind(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		record string
	}{
		{"scalar document", "just a string\n", "Document"},
		{"null document", "~\n", "Document"},
		{"sequence document", "- kind: ImageSetConfiguration\n", "Document"},
		{"scalar mirror", "kind: a\napiVersion: b\nmirror: everything\n", "Mirror"},
		{"scalar platform", "kind: a\napiVersion: b\nmirror:\n  platform: ocp\n", "Platform"},
		{"sequence helm", "kind: a\napiVersion: b\nmirror:\n  helm: [chart]\n", "Helm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input)
			assert.Nil(t, doc)

			var ke *KindError
			require.ErrorAs(t, err, &ke)
			assert.Equal(t, tt.record, ke.Record)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, ke.Line, pe.Line)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, input := range []string{
		"",
		"# nothing but a comment\n",
		"kind: [unterminated\n",
		"kind: a\napiVersion: b\nmirror: {\n",
		"kind: a\napiVersion: b\nmirror: {}\n\tbad: tab\n",
	} {
		t.Run(strings.TrimSpace(input), func(t *testing.T) {
			doc, err := Parse(input)
			assert.Nil(t, doc)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.True(t, strings.HasPrefix(err.Error(), "parsing config: "), err.Error())
		})
	}
}

func TestParseMalformedLine(t *testing.T) {
	_, err := Parse("kind: a\napiVersion: b\nmirror: {}\n\tbad: tab\n")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Positive(t, pe.Line, err.Error())

	tests := []struct {
		msg    string
		prefix string
		want   int
	}{
		{"yaml: line 4: found character that cannot start any token", "yaml: ", 4},
		{"line 12: cannot unmarshal !!seq into string", "", 12},
		{"yaml: document contains excessive aliasing", "yaml: ", 0},
		{"yaml: line x: nonsense", "yaml: ", 0},
		{"yaml: line 3", "yaml: ", 0},
		{"", "", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lineNumber(tt.msg, tt.prefix), tt.msg)
	}
}

// nestedAliases builds a small document whose operators, packages and
// channels each repeat an anchor n times, expanding to n*n*n channels.
func nestedAliases(n int) string {
	repeat := func(alias string) string {
		return strings.TrimSuffix(strings.Repeat(alias+", ", n), ", ")
	}
	return "kind: ImageSetConfiguration\n" +
		"apiVersion: v1alpha1\n" +
		"anchors:\n" +
		"  c: &c {name: stable}\n" +
		"  p: &p {name: pkg, channels: [" + repeat("*c") + "]}\n" +
		"  o: &o {catalog: registry.example.com/catalog:v1, packages: [" + repeat("*p") + "]}\n" +
		"mirror:\n" +
		"  operators: [" + repeat("*o") + "]\n"
}

func TestParseExcessiveAliasing(t *testing.T) {
	doc, err := Parse(nestedAliases(2))
	require.NoError(t, err)
	ops := doc.Mirror.Operators.OrElse(nil)
	require.Len(t, ops, 2)
	pkgs := ops[1].Packages.OrElse(nil)
	require.Len(t, pkgs, 2)
	assert.Len(t, pkgs[1].Channels.OrElse(nil), 2)

	doc, err = Parse(nestedAliases(100))
	assert.Nil(t, doc)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.ErrorContains(t, err, "excessive aliasing")
}

func TestParseOnlyFirstDocument(t *testing.T) {
	doc, err := Parse("kind: first\napiVersion: v1\nmirror: {}\n---\nkind: second\n")
	require.NoError(t, err)
	assert.Equal(t, "first", doc.Kind)
}
