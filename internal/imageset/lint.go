package imageset

import (
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Kind is the kind an image set configuration normally declares.
const Kind = "ImageSetConfiguration"

// Severity ranks a lint finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is a single lint result.
type Finding struct {
	Severity Severity
	Path     string // e.g. mirror.operators[0].catalog
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Severity, f.Path, f.Message)
}

// Lint reports problems a mirroring tool would hit later: unparseable image
// references, duplicate names and an empty request. Findings follow document
// order. Version bounds are never compared.
func Lint(doc *Document) []Finding {
	var l linter

	if _, err := schema.ParseGroupVersion(doc.APIVersion); err != nil {
		l.errorf("apiVersion", "invalid group/version %q: %v", doc.APIVersion, err)
	}
	if doc.Kind != Kind {
		l.warnf("kind", "expected %q, got %q", Kind, doc.Kind)
	}

	m := doc.Mirror
	if !m.Platform.IsSet() && !m.Release.IsSet() && !m.Operators.IsSet() &&
		!m.AdditionalImages.IsSet() && !m.Helm.IsSet() {
		l.warnf("mirror", "nothing requested")
	}

	if p, ok := m.Platform.Get(); ok {
		if len(p.Channels) == 0 {
			l.warnf("mirror.platform.channels", "no channels listed")
		}
		seen := make(map[string]bool)
		for i, c := range p.Channels {
			if seen[c.Name] {
				l.warnf(fmt.Sprintf("mirror.platform.channels[%d]", i), "duplicate channel %q", c.Name)
			}
			seen[c.Name] = true
		}
	}

	ops, _ := m.Operators.Get()
	for i, op := range ops {
		path := fmt.Sprintf("mirror.operators[%d]", i)
		l.reference(path+".catalog", op.Catalog)

		pkgs, _ := op.Packages.Get()
		seenPkg := make(map[string]bool)
		for j, pkg := range pkgs {
			pkgPath := fmt.Sprintf("%s.packages[%d]", path, j)
			if seenPkg[pkg.Name] {
				l.warnf(pkgPath, "duplicate package %q in catalog %s", pkg.Name, op.Catalog)
			}
			seenPkg[pkg.Name] = true

			chs, _ := pkg.Channels.Get()
			seenCh := make(map[string]bool)
			for k, ch := range chs {
				if seenCh[ch.Name] {
					l.warnf(fmt.Sprintf("%s.channels[%d]", pkgPath, k), "duplicate channel %q in package %s", ch.Name, pkg.Name)
				}
				seenCh[ch.Name] = true
			}
		}
	}

	imgs, _ := m.AdditionalImages.Get()
	for i, img := range imgs {
		l.reference(fmt.Sprintf("mirror.additionalImages[%d].name", i), img.Name)
	}

	return l.findings
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

type linter struct {
	findings []Finding
}

func (l *linter) errorf(path, format string, args ...any) {
	l.findings = append(l.findings, Finding{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (l *linter) warnf(path, format string, args ...any) {
	l.findings = append(l.findings, Finding{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (l *linter) reference(path, ref string) {
	if ref == "" {
		l.errorf(path, "empty image reference")
		return
	}
	if _, err := name.ParseReference(ref); err != nil {
		l.errorf(path, "invalid image reference: %v", err)
	}
}
