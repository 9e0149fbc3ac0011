package vocab

import (
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aymerick/douceur/parser"
	"github.com/npillmayer/szenar/core"
)

// Extension describes a custom keyword supplied by configuration at
// startup. Extensions become plain decoration keywords: they wrap their
// content in Element, optionally carrying a class and a fixed CSS style.
type Extension struct {
	Name      string `toml:"name"`
	Alias     string `toml:"alias"`
	Element   string `toml:"element"`
	Class     string `toml:"class"`
	Placement string `toml:"placement"` // "block", "inline" or "both"
	Style     string `toml:"style"`     // CSS declarations, e.g. "color: #800; padding: 2px"
}

// extensionFile is the TOML surface of an extension file:
//
//	[[keyword]]
//	name    = "warning"
//	alias   = "警告"
//	element = "div"
//	class   = "warning"
//	placement = "block"
//	style   = "border-left: 4px solid #c00; padding-left: 8px"
type extensionFile struct {
	Keywords []Extension `toml:"keyword"`
}

// LoadExtensions reads keyword extensions from TOML data. The result is
// ready to be passed to NewTable; per-extension validation happens there.
func LoadExtensions(data []byte) ([]Extension, error) {
	var file extensionFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, core.WrapError(err, core.ECONFIG, "cannot read keyword extension file")
	}
	return file.Keywords, nil
}

var (
	elementName = regexp.MustCompile(`^[a-z][a-z0-9]*$`)
	className   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
)

// keyword validates an extension and converts it into a descriptor.
func (ext Extension) keyword() (*Keyword, error) {
	name := strings.TrimSpace(ext.Name)
	if name == "" {
		return nil, core.Error(core.ECONFIG, "extension keyword without a name")
	}
	if !elementName.MatchString(ext.Element) {
		return nil, core.Error(core.ECONFIG, "extension %q: element %q is not a plain element name", name, ext.Element)
	}
	if ext.Class != "" && !className.MatchString(ext.Class) {
		return nil, core.Error(core.ECONFIG, "extension %q: class %q is not a plain class name", name, ext.Class)
	}
	var place Placement
	switch ext.Placement {
	case "block":
		place = BlockCap
	case "inline":
		place = InlineCap
	case "both", "":
		place = AnyPlace
	default:
		return nil, core.Error(core.ECONFIG, "extension %q: placement must be block, inline or both", name)
	}
	style, err := validateStyle(name, ext.Style)
	if err != nil {
		return nil, err
	}
	return &Keyword{
		Name:    name,
		Alias:   strings.TrimSpace(ext.Alias),
		Element: ext.Element,
		Class:   ext.Class,
		Place:   place,
		Style:   style,
	}, nil
}

// styleProperties is the allow-list for extension CSS. Anything else is
// rejected at table construction, keeping extension styles from smuggling
// arbitrary CSS into rendered output.
var styleProperties = map[string]bool{
	"color":            true,
	"background":       true,
	"background-color": true,
	"border":           true,
	"border-top":       true,
	"border-right":     true,
	"border-bottom":    true,
	"border-left":      true,
	"border-radius":    true,
	"padding":          true,
	"padding-top":      true,
	"padding-right":    true,
	"padding-bottom":   true,
	"padding-left":     true,
	"margin":           true,
	"margin-top":       true,
	"margin-right":     true,
	"margin-bottom":    true,
	"margin-left":      true,
	"font-weight":      true,
	"font-style":       true,
	"font-size":        true,
	"text-decoration":  true,
}

// validateStyle parses a style snippet with douceur and checks every
// declaration against the property allow-list. It returns the snippet in
// re-serialized canonical form.
func validateStyle(name, style string) (string, error) {
	style = strings.TrimSpace(style)
	if style == "" {
		return "", nil
	}
	if !strings.HasSuffix(style, ";") {
		style += ";" // douceur expects a terminated declaration list
	}
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return "", core.WrapError(err, core.ECONFIG, "extension %q: cannot parse style", name)
	}
	var b strings.Builder
	for i, decl := range decls {
		prop := strings.ToLower(strings.TrimSpace(decl.Property))
		if !styleProperties[prop] {
			return "", core.Error(core.ECONFIG, "extension %q: style property %q not allowed", name, decl.Property)
		}
		if strings.ContainsAny(decl.Value, `<>"'&`) {
			return "", core.Error(core.ECONFIG, "extension %q: style value %q contains markup characters", name, decl.Value)
		}
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(prop)
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(decl.Value))
	}
	tracer().Debugf("extension %q carries style '%s'", name, b.String())
	return b.String(), nil
}
