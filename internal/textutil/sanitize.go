package textutil

import "strings"

var fileNameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a DataPack key or label usable as a file name.
// Path separators become underscores so Type/Name keys stay readable;
// whitespace runs collapse to a single dash.
func SanitizeFileName(name string) string {
	name = strings.Join(strings.Fields(name), "-")
	if name == "" {
		return ""
	}
	return strings.Trim(fileNameReplacer.Replace(name), ".")
}
