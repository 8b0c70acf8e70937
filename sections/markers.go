// Package sections joins multipart output with reserved inline markers and
// splits assembled documents back into navigable sections.
package sections

import (
	"fmt"
	"strings"

	"funnel_copy_generator/project"
)

// Family tells the heuristic tier which heading patterns announce a section
// in documents written before markers existed.
type Family string

const (
	FamilyLead      Family = "lead"
	FamilyMessaging Family = "messaging"
	FamilyItems     Family = "items"
)

// Section is one canonical section of a multipart document.
type Section struct {
	Name   string `yaml:"name" json:"name"`
	Label  string `yaml:"label" json:"label"`
	Family Family `yaml:"family" json:"family"`
	// Token overrides the marker literal derived from Name.
	Token string `yaml:"token,omitempty" json:"token,omitempty"`
}

// Registry maps part indices to sections for one variant. The marker for
// index i is derived from Sections[i].Name unless the section sets Token.
type Registry struct {
	Variant  project.Variant `yaml:"variant" json:"variant"`
	Sections []Section       `yaml:"sections" json:"sections"`
}

// Marker renders the reserved token for a section name.
func Marker(name string) string {
	return "<!-- SECTION:" + name + " -->"
}

// Len is the registry's arity.
func (r Registry) Len() int { return len(r.Sections) }

// Marker returns the marker literal for part index i.
func (r Registry) Marker(i int) string {
	if tok := r.Sections[i].Token; tok != "" {
		return tok
	}
	return Marker(r.Sections[i].Name)
}

// Index returns the part index of the section with the given name or label.
func (r Registry) Index(nameOrLabel string) (int, bool) {
	for i, s := range r.Sections {
		if strings.EqualFold(s.Name, nameOrLabel) || strings.EqualFold(s.Label, nameOrLabel) {
			return i, true
		}
	}
	return -1, false
}

// Validate rejects empty registries, empty or duplicate names and names
// that would break the marker syntax.
func (r Registry) Validate() error {
	if len(r.Sections) == 0 {
		return fmt.Errorf("sections: registry for variant %q has no sections", r.Variant)
	}
	seen := make(map[string]bool, len(r.Sections))
	tokens := make(map[string]bool, len(r.Sections))
	for i, s := range r.Sections {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("sections: section %d of variant %q has no name", i, r.Variant)
		}
		if strings.ContainsAny(name, " \t\n<>-") {
			return fmt.Errorf("sections: section name %q must not contain spaces, '<', '>' or '-'", name)
		}
		if seen[name] {
			return fmt.Errorf("sections: duplicate section name %q in variant %q", name, r.Variant)
		}
		seen[name] = true
		tok := r.Marker(i)
		if tokens[tok] {
			return fmt.Errorf("sections: duplicate marker %q in variant %q", tok, r.Variant)
		}
		tokens[tok] = true
	}
	for a := range tokens {
		for b := range tokens {
			if a != b && strings.Contains(b, a) {
				return fmt.Errorf("sections: marker %q is contained in marker %q", a, b)
			}
		}
	}
	return nil
}

// CampaignKit is the built-in three-part registry.
func CampaignKit() Registry {
	return Registry{
		Variant: project.VariantCampaignKit,
		Sections: []Section{
			{Name: "PAGE", Label: "page", Family: FamilyLead},
			{Name: "MESSAGES", Label: "messages", Family: FamilyMessaging},
			{Name: "DELIVERABLES", Label: "deliverables", Family: FamilyItems},
		},
	}
}

// Set holds one registry per multipart variant.
type Set map[project.Variant]Registry

// DefaultSet contains the built-in registries.
func DefaultSet() Set {
	kit := CampaignKit()
	return Set{kit.Variant: kit}
}

// For returns the registry of a variant, if it uses multipart assembly.
func (s Set) For(v project.Variant) (Registry, bool) {
	r, ok := s[v]
	return r, ok
}

// StripMarkers removes any registry marker literal from text. Part output
// runs through it before assembly so generated text can never forge a
// section boundary.
func (r Registry) StripMarkers(text string) string {
	// Removing one marker can splice the halves of another together.
	for {
		out := text
		for i := range r.Sections {
			out = strings.ReplaceAll(out, r.Marker(i), "")
		}
		if out == text {
			return out
		}
		text = out
	}
}
