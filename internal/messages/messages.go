package messages

import (
	_ "embed"

	"github.com/magiconair/properties"
)

//go:embed messages.properties
var defaults string

// Bundle resolves view strings by key. Unknown keys resolve to themselves
// so a missing translation shows up on screen instead of as a blank.
type Bundle struct {
	props *properties.Properties
}

// New loads the embedded defaults and overlays any of the given files that
// exist.
func New(files ...string) (*Bundle, error) {
	props, err := properties.LoadString(defaults)
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		extra, err := properties.LoadFiles(files, properties.UTF8, true)
		if err != nil {
			return nil, err
		}
		props.Merge(extra)
	}
	return &Bundle{props: props}, nil
}

func Default() *Bundle {
	return &Bundle{props: properties.MustLoadString(defaults)}
}

func (b *Bundle) Get(key string) string {
	if v, ok := b.props.Get(key); ok {
		return v
	}
	return key
}
