package encoder

import "github.com/eleven-am/movierec/internal/domain"

// AttributeParams is everything the recorder hands a backend at
// construction time.
type AttributeParams struct {
	Video           domain.VideoTrackAttributes
	Audio           *domain.AudioTrackAttributes
	Preset          int
	PresetName      string
	ColorDefinition domain.ColorDefinition
	CustomOptions   string
}

// BuildAttributes returns the ordered attribute list: video track, the
// optional audio track, codec preset, color definition and, for the custom
// preset only, the custom options string.
func BuildAttributes(p AttributeParams) []domain.Attribute {
	attrs := []domain.Attribute{
		domain.VideoTrackAttribute{Name: domain.LabelVideoAttributes, Value: p.Video},
	}
	if p.Audio != nil {
		attrs = append(attrs, domain.AudioTrackAttribute{Name: domain.LabelAudioAttributes, Value: *p.Audio})
	}
	attrs = append(attrs,
		domain.IntAttribute{Name: domain.LabelCodecFormat, Value: p.Preset},
		domain.IntAttribute{Name: domain.LabelColorDefinition, Value: int(p.ColorDefinition)},
	)
	if p.PresetName == domain.CustomPresetName {
		attrs = append(attrs, domain.StringAttribute{Name: domain.LabelCustomOptions, Value: p.CustomOptions})
	}
	return attrs
}

// BitrateMode maps the encoding quality setting to a track bitrate mode.
func BitrateMode(q domain.Quality) domain.BitrateMode {
	switch q {
	case domain.QualityLow:
		return domain.BitrateLow
	case domain.QualityHigh:
		return domain.BitrateHigh
	default:
		return domain.BitrateMedium
	}
}
