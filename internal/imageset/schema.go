// Package imageset loads and parses image set configuration documents:
// declarations of the platform releases, operator catalogs, additional
// images and helm content a mirroring tool should copy.
package imageset

import "gopkg.in/yaml.v3"

// Document is the root of an image set configuration.
// After Parse, Kind and APIVersion were present in the source (possibly empty)
// and Mirror was a mapping.
type Document struct {
	Kind       string `json:"kind" yaml:"kind"`
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`
	Mirror     Mirror `json:"mirror" yaml:"mirror"`
}

// Mirror lists what to mirror. An absent field means nothing of that kind
// was requested.
type Mirror struct {
	Platform         Optional[Platform]   `json:"platform,omitzero" yaml:"platform,omitempty"`
	Release          Optional[string]     `json:"release,omitzero" yaml:"release,omitempty"`
	Operators        Optional[[]Operator] `json:"operators,omitzero" yaml:"operators,omitempty"`
	AdditionalImages Optional[[]Image]    `json:"additionalImages,omitzero" yaml:"additionalImages,omitempty"`
	Helm             Optional[Helm]       `json:"helm,omitzero" yaml:"helm,omitempty"`
}

// Platform selects release channels.
type Platform struct {
	Channels []Channel `json:"channels" yaml:"channels"`
	Graph    bool      `json:"graph" yaml:"graph"`
}

// Channel is a platform release channel. Type is free-form.
type Channel struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Operator selects content from one catalog. Absent Packages means every
// package in the catalog.
type Operator struct {
	Catalog  string              `json:"catalog" yaml:"catalog"`
	Packages Optional[[]Package] `json:"packages,omitzero" yaml:"packages,omitempty"`
}

// Package selects one operator package. The bounds layer on top of each
// other; none of them is checked against the others.
type Package struct {
	Name       string                     `json:"name" yaml:"name"`
	Channels   Optional[[]IncludeChannel] `json:"channels,omitzero" yaml:"channels,omitempty"`
	MinVersion Optional[string]           `json:"minVersion,omitzero" yaml:"minVersion,omitempty"`
	MaxVersion Optional[string]           `json:"maxVersion,omitzero" yaml:"maxVersion,omitempty"`
	MinBundle  Optional[string]           `json:"minBundle,omitzero" yaml:"minBundle,omitempty"`
}

// IncludeChannel bounds the selection within a single package channel.
type IncludeChannel struct {
	Name       string           `json:"name" yaml:"name"`
	MinVersion Optional[string] `json:"minVersion,omitzero" yaml:"minVersion,omitempty"`
	MaxVersion Optional[string] `json:"maxVersion,omitzero" yaml:"maxVersion,omitempty"`
	MinBundle  Optional[string] `json:"minBundle,omitzero" yaml:"minBundle,omitempty"`
}

// Image is a single image reference.
type Image struct {
	Name string `json:"name" yaml:"name"`
}

// Helm marks that helm mirroring was requested. It has no fields yet.
type Helm struct{}

func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	if err := checkRecord(value, "Document", []string{"kind", "apiVersion", "mirror"}); err != nil {
		return err
	}
	type rawDocument Document
	return value.Decode((*rawDocument)(d))
}

func (m *Mirror) UnmarshalYAML(value *yaml.Node) error {
	if err := checkRecord(value, "Mirror", nil, "operators", "additionalImages"); err != nil {
		return err
	}
	type rawMirror Mirror
	return value.Decode((*rawMirror)(m))
}

func (p *Platform) UnmarshalYAML(value *yaml.Node) error {
	if err := checkRecord(value, "Platform", []string{"channels", "graph"}, "channels"); err != nil {
		return err
	}
	type rawPlatform Platform
	return value.Decode((*rawPlatform)(p))
}

func (c *Channel) UnmarshalYAML(value *yaml.Node) error {
	if err := checkRecord(value, "Channel", []string{"name", "type"}); err != nil {
		return err
	}
	type rawChannel Channel
	return value.Decode((*rawChannel)(c))
}

func (o *Operator) UnmarshalYAML(value *yaml.Node) error {
	if err := checkRecord(value, "Operator", []string{"catalog"}, "packages"); err != nil {
		return err
	}
	type rawOperator Operator
	return value.Decode((*rawOperator)(o))
}

func (p *Package) UnmarshalYAML(value *yaml.Node) error {
	if err := checkRecord(value, "Package", []string{"name"}, "channels"); err != nil {
		return err
	}
	type rawPackage Package
	return value.Decode((*rawPackage)(p))
}

func (c *IncludeChannel) UnmarshalYAML(value *yaml.Node) error {
	if err := checkRecord(value, "IncludeChannel", []string{"name"}); err != nil {
		return err
	}
	type rawIncludeChannel IncludeChannel
	return value.Decode((*rawIncludeChannel)(c))
}

func (i *Image) UnmarshalYAML(value *yaml.Node) error {
	if err := checkRecord(value, "Image", []string{"name"}); err != nil {
		return err
	}
	type rawImage Image
	return value.Decode((*rawImage)(i))
}

// UnmarshalYAML accepts any mapping; unknown keys are ignored.
func (h *Helm) UnmarshalYAML(value *yaml.Node) error {
	return checkRecord(value, "Helm", nil)
}
