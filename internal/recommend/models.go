package recommend

// DisplayCap is how many items of each kind a recommendation set carries.
// Fetchers may gather more than this before trimming.
const DisplayCap = 3

// FetchCap bounds how many candidates a live provider call collects before
// dedupe/shuffle/trim.
const FetchCap = 10

// Item is the provider-agnostic recommendation record. Title and Link are
// mandatory; everything else degrades to placeholders at render time.
type Item struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description"`
	ImageURL    string   `json:"image_url,omitempty" yaml:"image_url"`
	Link        string   `json:"link" yaml:"link"`
	Rating      *float64 `json:"rating,omitempty" yaml:"rating"`
	PreviewURL  string   `json:"preview_url,omitempty" yaml:"preview_url"`
}

// Set is one full recommendation response: three independent capped lists.
type Set struct {
	Movies []Item `json:"movies"`
	Songs  []Item `json:"songs"`
	Books  []Item `json:"books"`
}
