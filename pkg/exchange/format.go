package exchange

// Format identifies one platform-recognized data format. The engine treats
// it as an opaque key and never interprets its content; values are typically
// MIME types on Linux, UTIs on macOS and registered format names on Windows.
type Format string

// Well-known formats, provided for convenience only. Any string is a valid
// Format.
const (
	FormatTextPlain Format = "text/plain"
	FormatTextHTML  Format = "text/html"
	FormatURIList   Format = "text/uri-list"
	FormatImagePNG  Format = "image/png"
)

func (f Format) String() string {
	return string(f)
}
