package highlight

import (
	"sort"
	"strings"

	"braces.dev/errtrace"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// PlainStyle is a minimal syntax highlighting style for Chroma.
// It leaves most text as-is, and fades comments ever so slightly.
var PlainStyle = chroma.MustNewStyle("plain", map[chroma.TokenType]string{
	chroma.Comment:    "#666666",
	chroma.PreWrapper: "bg:#eeeeee",
	chroma.Background: "bg:#eeeeee",
})

func init() {
	styles.Register(PlainStyle)
}

// LookupStyle returns the registered Chroma style with the given name.
func LookupStyle(name string) (*chroma.Style, error) {
	// styles.Get falls back to a default style for unknown names
	// so look in the registry directly.
	if s, ok := styles.Registry[strings.ToLower(name)]; ok {
		return s, nil
	}

	names := styles.Names()
	sort.Strings(names)
	return nil, errtrace.Errorf("unknown style %q: valid values are %q", name, names)
}
