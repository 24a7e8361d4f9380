package content

import (
	"net/url"
	"path"
	"strings"
)

// Kind selects how the viewer presents a resource.
type Kind string

const (
	KindDocument Kind = "document"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindImage    Kind = "image"
	// KindExternal is the fallback: the resource opens in a new tab.
	KindExternal Kind = "external"
)

var kindsByExtension = map[string]Kind{
	".pdf":  KindDocument,
	".mp4":  KindVideo,
	".webm": KindVideo,
	".mov":  KindVideo,
	".m4v":  KindVideo,
	".mp3":  KindAudio,
	".wav":  KindAudio,
	".ogg":  KindAudio,
	".m4a":  KindAudio,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".gif":  KindImage,
	".webp": KindImage,
}

// KindFromLocator infers the kind from the file extension of the locator
// path, ignoring query strings and fragments.
func KindFromLocator(locator string) Kind {
	p := locator
	if u, err := url.Parse(locator); err == nil {
		p = u.Path
	}
	if k, ok := kindsByExtension[strings.ToLower(path.Ext(p))]; ok {
		return k
	}
	return KindExternal
}
