// Package assets embeds the default palette and the SQL migrations so the
// binary runs from any working directory.
package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed palette.txt sql/*.sql
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}

// PaletteList returns the embedded default colours in file order.
func PaletteList() ([]string, error) {
	return readLines("palette.txt")
}

// Migrations returns the embedded migration tree rooted at "sql".
func Migrations() (fs.FS, error) {
	return fs.Sub(FS, "sql")
}
