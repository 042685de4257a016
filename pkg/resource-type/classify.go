// Package resourcetype derives a coarse resource category from the
// orchestrator's URL type hint and the file extension of the URL.
package resourcetype

import (
	"net/url"
	"regexp"
	"strings"
)

// URL type hints sent by the orchestrator.
const (
	MainDocument = "main_document"
	Asset        = "asset"
	Exception    = "exception"
)

// Categories.
const (
	HTML          = "html"
	Image         = "image"
	CSS           = "css"
	JS            = "js"
	Font          = "font"
	Video         = "video"
	Other         = "other"
	ExceptionType = "exception"
)

var assetCategories = map[string]string{
	"jpg": Image, "jpeg": Image, "gif": Image, "png": Image,
	"webp": Image, "avif": Image, "svg": Image, "ico": Image,
	"css":  CSS,
	"js":   JS,
	"woff": Font, "woff2": Font, "ttf": Font, "otf": Font, "eot": Font,
	"mp4": Video, "webm": Video, "ogg": Video, "mov": Video,
}

var validExtension = regexp.MustCompile(`^[a-z0-9]+$`)

// Info describes the resource a warmup request targets.
// Nil fields are reported as null.
type Info struct {
	URLType   *string
	Extension *string
	Category  *string
}

// Classify never fails: an unparseable URL just has no extension.
func Classify(urlType *string, rawURL string) Info {
	info := Info{URLType: urlType, Extension: Extension(rawURL)}
	if urlType == nil {
		return info
	}
	var category string
	switch *urlType {
	case MainDocument:
		category = HTML
	case Asset:
		category = Other
		if info.Extension != nil {
			if c, ok := assetCategories[*info.Extension]; ok {
				category = c
			}
		}
	case Exception:
		category = ExceptionType
	default:
		return info
	}
	info.Category = &category
	return info
}

// Extension returns the lowercased text after the last "." of the URL path,
// or nil when there is none or it is not purely alphanumeric.
func Extension(rawURL string) *string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	i := strings.LastIndex(u.Path, ".")
	if i < 0 {
		return nil
	}
	ext := strings.ToLower(u.Path[i+1:])
	if !validExtension.MatchString(ext) {
		return nil
	}
	return &ext
}
