// Package filetype classifies build-recipe paths.
package filetype

import (
	"path"
	"strings"
)

// Known filetypes. Each names one knowledge-base file.
const (
	BuildSh      = "build.sh"
	SubpackageSh = "subpackage.sh"
	Install      = "install"
	PKGBUILD     = "PKGBUILD"
	Ebuild       = "ebuild"
	MakeConf     = "make.conf"
)

// All lists the known filetypes.
var All = []string{BuildSh, SubpackageSh, Install, PKGBUILD, Ebuild, MakeConf}

// Classify returns the filetype of a path or file URI, or false when the
// path is not a recognized recipe.
func Classify(p string) (string, bool) {
	p = strings.TrimPrefix(p, "file://")
	p = strings.ReplaceAll(p, `\`, "/")
	base := path.Base(p)
	ext := strings.TrimPrefix(path.Ext(base), ".")

	switch {
	case base == "build.sh":
		return BuildSh, true
	case strings.HasSuffix(base, ".subpackage.sh"):
		return SubpackageSh, true
	case ext == "install":
		return Install, true
	case base == "PKGBUILD":
		return PKGBUILD, true
	case ext == "ebuild" || ext == "eclass":
		return Ebuild, true
	case base == "make.conf":
		return MakeConf, true
	}
	return "", false
}
