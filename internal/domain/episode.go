package domain

// TranscriptSegment is one timestamped unit of transcribed speech.
type TranscriptSegment struct {
	Start    float64 `json:"start"`
	Text     string  `json:"text"`
	Duration float64 `json:"duration,omitempty"`
}

// Entity labels consumed by the mention engine. Recognizers may emit others.
const (
	LabelOrganization = "ORG"
	LabelProduct      = "PRODUCT"
)

// Entity is a span returned by a named-entity recognizer.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// ProductMention is a brand or product reference found in a segment.
type ProductMention struct {
	T       float64  `json:"t"`
	Name    string   `json:"name"`
	Context string   `json:"context"`
	Tags    []string `json:"tags"`
}

// MediaType classifies a spoken playback directive.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaSong  MediaType = "song"
	MediaAudio MediaType = "audio"
)

// Valid reports whether the media type belongs to the known vocabulary.
func (m MediaType) Valid() bool {
	switch m {
	case MediaVideo, MediaSong, MediaAudio:
		return true
	default:
		return false
	}
}

// MediaCue marks a moment where the host asks for a clip, song or audio.
type MediaCue struct {
	T    float64   `json:"t"`
	Cue  string    `json:"cue"`
	Type MediaType `json:"type"`
}

// EpisodeResult is the persisted artifact for one episode. Saving it replaces
// any earlier result stored under the same id.
type EpisodeResult struct {
	EpisodeID string           `json:"episode_id"`
	Products  []ProductMention `json:"products"`
	Media     []MediaCue       `json:"media"`
}

// ExtractionStats summarises a single engine run.
type ExtractionStats struct {
	Segments           int
	EmptySegments      int
	AdSegments         int
	AdWindowSegments   int
	RecognizerFailures int
	SuppressedMentions int
}

// Extraction is the engine output before it is bound to an episode id.
type Extraction struct {
	Products []ProductMention
	Media    []MediaCue
	Stats    ExtractionStats
}

// Result binds the extraction to an episode, normalising nil slices so the
// persisted JSON always carries arrays.
func (e Extraction) Result(episodeID string) EpisodeResult {
	res := EpisodeResult{
		EpisodeID: episodeID,
		Products:  e.Products,
		Media:     e.Media,
	}
	res.Normalize()
	return res
}

// Normalize replaces nil slices with empty ones.
func (r *EpisodeResult) Normalize() {
	if r.Products == nil {
		r.Products = []ProductMention{}
	}
	if r.Media == nil {
		r.Media = []MediaCue{}
	}
	for i := range r.Products {
		if r.Products[i].Tags == nil {
			r.Products[i].Tags = []string{}
		}
	}
}
