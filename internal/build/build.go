package build

import "strings"

var (
	Version = "dev"
	AppName = "Tailor"
	Slug    = ""
)

func init() {
	if Slug == "" {
		Slug = strings.ToLower(AppName)
	}
}
