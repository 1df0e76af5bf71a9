// Package palette assigns deterministic colors to label sets.
package palette

// Default is the ColorBrewer Paired scheme, 12 qualitative colors.
var Default = []string{
	"#a6cee3", "#1f78b4", "#b2df8a", "#33a02c",
	"#fb9a99", "#e31a1c", "#fdbf6f", "#ff7f00",
	"#cab2d6", "#6a3d9a", "#ffff99", "#b15928",
}

// Assign maps each label to a color in the order the labels first appear,
// cycling through the palette when labels outnumber colors. An empty palette
// falls back to Default.
func Assign(labels, colors []string) map[string]string {
	if len(colors) == 0 {
		colors = Default
	}

	out := make(map[string]string, len(labels))
	next := 0
	for _, label := range labels {
		if _, ok := out[label]; ok {
			continue
		}
		out[label] = colors[next%len(colors)]
		next++
	}

	return out
}
