package backend

import (
	"fmt"

	"github.com/eleven-am/movierec/internal/domain"
)

type parsedAttributes struct {
	video         domain.VideoTrackAttributes
	audio         *domain.AudioTrackAttributes
	preset        int
	color         domain.ColorDefinition
	customOptions string
}

func parseAttributes(attrs []domain.Attribute) (parsedAttributes, error) {
	var p parsedAttributes
	var haveVideo bool

	for _, attr := range attrs {
		switch a := attr.(type) {
		case domain.VideoTrackAttribute:
			p.video = a.Value
			haveVideo = true
		case domain.AudioTrackAttribute:
			if p.audio != nil {
				return p, fmt.Errorf("backend: only one audio track is supported")
			}
			audio := a.Value
			p.audio = &audio
		case domain.IntAttribute:
			switch a.Name {
			case domain.LabelCodecFormat:
				p.preset = a.Value
			case domain.LabelColorDefinition:
				p.color = domain.ColorDefinition(a.Value)
			default:
				return p, fmt.Errorf("backend: unknown attribute %q", a.Name)
			}
		case domain.StringAttribute:
			if a.Name != domain.LabelCustomOptions {
				return p, fmt.Errorf("backend: unknown attribute %q", a.Name)
			}
			p.customOptions = a.Value
		default:
			return p, fmt.Errorf("backend: unsupported attribute type %T", attr)
		}
	}

	if !haveVideo {
		return p, ErrMissingVideoAttributes
	}
	return p, nil
}
