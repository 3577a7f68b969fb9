package material

import (
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/pipeline"
)

// BlendMode is a named combination of blend and depth-write settings.
type BlendMode int

const (
	BlendReplace BlendMode = iota
	BlendTranslucent
	BlendAdd
	BlendModulate
	BlendScreen
)

func (m BlendMode) String() string {
	switch m {
	case BlendReplace:
		return "replace"
	case BlendTranslucent:
		return "translucent"
	case BlendAdd:
		return "add"
	case BlendModulate:
		return "modulate"
	case BlendScreen:
		return "screen"
	}
	return "unknown"
}

// ParseBlendMode maps a name as returned by String back to its mode.
func ParseBlendMode(name string) (BlendMode, bool) {
	for m := BlendReplace; m <= BlendScreen; m++ {
		if m.String() == name {
			return m, true
		}
	}
	return BlendReplace, false
}

type blendSettings struct {
	enabled    bool
	src, dst   gpu.BlendFactor
	depthWrite bool
}

var blendTable = map[BlendMode]blendSettings{
	BlendReplace:     {false, gpu.BlendOne, gpu.BlendZero, true},
	BlendTranslucent: {true, gpu.BlendSrcAlpha, gpu.BlendOneMinusSrcAlpha, false},
	BlendAdd:         {true, gpu.BlendOne, gpu.BlendOne, false},
	BlendModulate:    {true, gpu.BlendDstColor, gpu.BlendZero, false},
	BlendScreen:      {true, gpu.BlendOne, gpu.BlendOneMinusSrcColor, false},
}

// applyBlendMode rewrites every blend-related field of s for mode. Unknown modes leave s as is.
func applyBlendMode(s *pipeline.StateBlock, mode BlendMode) {
	b, ok := blendTable[mode]
	if !ok {
		return
	}
	s.SetBlendEnabled(b.enabled)
	s.SetBlendFactors(b.src, b.dst)
	s.SetBlendEquation(gpu.BlendAdd)
	s.SetDepthWrite(b.depthWrite)
}
