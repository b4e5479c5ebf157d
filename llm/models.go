package llm

import "strings"

// ModelID identifies a model variant in the static catalog
type ModelID string

const (
	ModelFlashExp ModelID = "flash-exp"
	ModelPro3     ModelID = "pro-3"
	ModelPro25    ModelID = "pro-2.5"
	ModelFlash25  ModelID = "flash-2.5"
)

// ModelSpec is one row of the static model policy table: how to match the
// human label, which API identifier to send, and which request/response
// shape the variant uses.
type ModelSpec struct {
	ID       ModelID
	Label    string // human label shown in the selector
	match    string // label substring that selects this variant
	APIModel string // provider model identifier

	// MultimodalOutput marks the experimental variant: TEXT+IMAGE reply
	// modalities, permissive safety, replies accumulate into the request
	// buffer, search forcibly disabled.
	MultimodalOutput bool

	// SearchCapable allows the web-search tool augmentation
	SearchCapable bool

	// Attachments allows document/image uploads with this variant
	Attachments bool
}

// catalog is ordered: the first substring match wins, mirroring the original
// selector. Resolve falls back to the default standard model for unknown
// labels.
var catalog = []ModelSpec{
	{
		ID:               ModelFlashExp,
		Label:            "Gemini 2.0 flash Exp （图，文）",
		match:            "2.0 flash Exp",
		APIModel:         "gemini-2.0-flash",
		MultimodalOutput: true,
		Attachments:      true,
	},
	{
		ID:            ModelPro3,
		Label:         "Gemini 3.0 Pro (最强大脑)",
		match:         "3.0 Pro",
		APIModel:      "gemini-3-pro-preview",
		SearchCapable: true,
		Attachments:   true,
	},
	{
		ID:            ModelPro25,
		Label:         "Gemini 2.5 Pro",
		match:         "2.5 Pro",
		APIModel:      "gemini-2.5-pro",
		SearchCapable: true,
		Attachments:   true,
	},
	{
		ID:            ModelFlash25,
		Label:         "Gemini 2.5 flash",
		match:         "2.5 flash",
		APIModel:      "gemini-2.5-flash",
		SearchCapable: true,
		Attachments:   true,
	},
}

// DefaultModel is the fallback standard variant for unmatched labels
var DefaultModel = MustLookup(ModelPro25)

// ImagenModel is the image-generation model identifier
const ImagenModel = "imagen-3.0-generate-002"

// Resolve maps a human model label to its catalog entry. Unknown or
// unmatched labels fall back to the default standard model.
func Resolve(label string) ModelSpec {
	for _, spec := range catalog {
		if strings.Contains(label, spec.match) {
			return spec
		}
	}
	return DefaultModel
}

// Lookup returns the catalog entry for a ModelID
func Lookup(id ModelID) (ModelSpec, bool) {
	for _, spec := range catalog {
		if spec.ID == id {
			return spec, true
		}
	}
	return ModelSpec{}, false
}

// MustLookup is Lookup for static catalog references
func MustLookup(id ModelID) ModelSpec {
	spec, ok := Lookup(id)
	if !ok {
		panic("llm: unknown model id " + string(id))
	}
	return spec
}

// Labels returns the selectable model labels in catalog order
func Labels() []string {
	labels := make([]string, len(catalog))
	for i, spec := range catalog {
		labels[i] = spec.Label
	}
	return labels
}
