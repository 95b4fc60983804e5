package domain

// File kinds reported by the storefront nodes query.
const (
	FileKindGeneric       = "GenericFile"
	FileKindMediaImage    = "MediaImage"
	FileKindMediaVideo    = "MediaVideo"
	FileKindExternalVideo = "ExternalVideo"
)

type PreviewImage struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url"`
}

type VideoSource struct {
	MimeType string `json:"mimeType"`
	URL      string `json:"url"`
}

// FileRecord is a resolved file reference. Which fields are set depends on
// Kind: generic files carry url/mimeType/alt/size/preview, images carry
// url/alt, hosted videos carry sources and external videos embedUrl/host.
type FileRecord struct {
	Kind             string        `json:"-"`
	ID               string        `json:"id"`
	URL              string        `json:"url,omitempty"`
	MimeType         string        `json:"mimeType,omitempty"`
	Alt              *string       `json:"alt,omitempty"`
	OriginalFileSize int64         `json:"originalFileSize,omitempty"`
	PreviewImage     *PreviewImage `json:"previewImage,omitempty"`
	VideoSources     []VideoSource `json:"videoSources,omitempty"`
	EmbedURL         string        `json:"embedUrl,omitempty"`
	Host             string        `json:"host,omitempty"`
}
