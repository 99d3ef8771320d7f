package badge

import (
	"io/fs"
	"path"
	"strings"

	"gopkg.in/guregu/null.v4"
)

// IconResolver turns bare icon file names into paths the view can serve.
//
// Icons shipped in the plugin's own resources are preferred, and any other
// icon falls back to the host's built-in 16x16 icon directory. Resolution
// never fails: an icon that exists in neither place still resolves to the
// host path and is simply rendered as a broken image.
type IconResolver struct {
	// PluginName is the short name used in plugin-scoped resource paths.
	PluginName string
	// PluginResources is the plugin's resource directory. The icons are
	// looked up in its "images" subdirectory. May be nil.
	PluginResources fs.FS
	// HostResourcePath is the URL path prefix of the host's static resources.
	HostResourcePath string
}

// Resolve returns the path to use for the given icon. Empty icon names
// resolve to null, and paths starting with a slash are returned unchanged.
func (r IconResolver) Resolve(icon string) null.String {
	if icon == "" {
		return null.String{}
	}
	if strings.HasPrefix(icon, "/") {
		return null.StringFrom(icon)
	}
	if r.pluginHasIcon(icon) {
		return null.StringFrom("/plugin/" + r.PluginName + "/images/" + icon)
	}
	return null.StringFrom(r.HostResourcePath + "/images/16x16/" + icon)
}

func (r IconResolver) pluginHasIcon(icon string) bool {
	if r.PluginResources == nil {
		return false
	}
	name := path.Join("images", icon)
	if !fs.ValidPath(name) {
		return false
	}
	_, err := fs.Stat(r.PluginResources, name)
	return err == nil
}
