package election

import "strings"

var partyColors = map[string]string{
	"DEMOCRAT":    "#2166ac",
	"DEMOCRATIC":  "#2166ac",
	"REPUBLICAN":  "#b2182b",
	"LIBERTARIAN": "#ffd700",
	"GREEN":       "#92c5de",
	"OTHER":       "#666666",
}

// PartyColor returns the display colour for a party, OTHER's for unknown ones
func PartyColor(party string) string {
	if c, ok := partyColors[strings.ToUpper(strings.TrimSpace(party))]; ok {
		return c
	}
	return partyColors[Other]
}

// MarginPalette colours a state by the leading major party and its margin
// in percentage points over the other.
type MarginPalette struct {
	StrongMargin float64 `yaml:"strong_margin" json:"strongMargin"`
	DemStrong    string  `yaml:"dem_strong" json:"demStrong"`
	DemLean      string  `yaml:"dem_lean" json:"demLean"`
	RepStrong    string  `yaml:"rep_strong" json:"repStrong"`
	RepLean      string  `yaml:"rep_lean" json:"repLean"`
	NoData       string  `yaml:"no_data" json:"noData"`
}

// DefaultPalette is the palette used when none is configured
var DefaultPalette = MarginPalette{
	StrongMargin: 20,
	DemStrong:    "#0000FF",
	DemLean:      "#4169E1",
	RepStrong:    "#FF0000",
	RepLean:      "#CD5C5C",
	NoData:       "#808080",
}

// WithDefaults fills empty entries from DefaultPalette
func (p MarginPalette) WithDefaults() MarginPalette {
	d := DefaultPalette
	if p.StrongMargin <= 0 {
		p.StrongMargin = d.StrongMargin
	}
	p.DemStrong = orDefault(p.DemStrong, d.DemStrong)
	p.DemLean = orDefault(p.DemLean, d.DemLean)
	p.RepStrong = orDefault(p.RepStrong, d.RepStrong)
	p.RepLean = orDefault(p.RepLean, d.RepLean)
	p.NoData = orDefault(p.NoData, d.NoData)
	return p
}

// Color picks the fill for a state. A tie goes to the Republican side.
func (p MarginPalette) Color(demPct, repPct float64) string {
	if demPct > repPct {
		if demPct-repPct > p.StrongMargin {
			return p.DemStrong
		}
		return p.DemLean
	}
	if repPct-demPct > p.StrongMargin {
		return p.RepStrong
	}
	return p.RepLean
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
