package render

import (
	"strings"

	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/phanxgames/gocompose"
)

// FaceTextMeasurer implements compose.TextMeasurer by shaping through
// ebiten's text/v2 package, the face-based text stack the teacher's
// text.go builds on. Safe for concurrent Measure calls (spec §5 "the text
// measurer is shared ... must be internally synchronized") since
// text.Face.Metrics and text.Measure allocate no shared mutable state.
type FaceTextMeasurer struct {
	faces map[compose.FontHandle]text.Face
}

// NewFaceTextMeasurer creates an empty measurer; register faces via the
// FontProvider below before measuring text that uses them.
func NewFaceTextMeasurer() *FaceTextMeasurer {
	return &FaceTextMeasurer{faces: make(map[compose.FontHandle]text.Face)}
}

var _ compose.TextMeasurer = (*FaceTextMeasurer)(nil)

// Measure shapes text at fontSize against a registered face (which one is
// not defined when several are registered), wrapping at maxWidth (a
// non-positive maxWidth means unbounded). Line
// breaks are naive word-wrap, matching what a reference measurer needs to
// satisfy the core's measure/place contract without pulling in a full
// bidi/shaping engine.
func (m *FaceTextMeasurer) Measure(str string, fontSize float64, maxWidth float64) compose.TextMeasureResult {
	face := m.defaultFace()
	if face == nil {
		return approximateMeasure(str, fontSize, maxWidth)
	}
	if gf, ok := face.(*text.GoTextFace); ok {
		face = &text.GoTextFace{Source: gf.Source, Direction: gf.Direction, Size: fontSize}
	}

	lines := wrapLines(str, fontSize, maxWidth, face)
	result := compose.TextMeasureResult{Lines: make([]compose.LineMetrics, 0, len(lines))}
	metrics := face.Metrics()
	lineHeight := float64(metrics.HAscent + metrics.HDescent)

	for i, line := range lines {
		w, _ := text.Measure(line, face, 0)
		lm := compose.LineMetrics{
			Width:    w,
			Ascent:   float64(metrics.HAscent),
			Descent:  float64(metrics.HDescent),
			Baseline: float64(i)*lineHeight + float64(metrics.HAscent),
		}
		result.Lines = append(result.Lines, lm)
		if lm.Width > result.Width {
			result.Width = lm.Width
		}
	}
	result.Height = float64(len(lines)) * lineHeight
	return result
}

func (m *FaceTextMeasurer) defaultFace() text.Face {
	for _, f := range m.faces {
		return f
	}
	return nil
}

func wrapLines(str string, fontSize float64, maxWidth float64, face text.Face) []string {
	if maxWidth <= 0 {
		return strings.Split(str, "\n")
	}
	var lines []string
	for _, paragraph := range strings.Split(str, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := words[0]
		for _, w := range words[1:] {
			candidate := current + " " + w
			width, _ := text.Measure(candidate, face, 0)
			if width > maxWidth {
				lines = append(lines, current)
				current = w
				continue
			}
			current = candidate
		}
		lines = append(lines, current)
	}
	return lines
}

// approximateMeasure covers the case where no face has been registered
// yet: a monospace-ish heuristic (0.6 * fontSize per rune) so layout can
// still proceed deterministically before a FontProvider.Load call.
func approximateMeasure(str string, fontSize float64, maxWidth float64) compose.TextMeasureResult {
	charWidth := fontSize * 0.6
	lineHeight := fontSize * 1.2
	lines := strings.Split(str, "\n")
	result := compose.TextMeasureResult{Height: float64(len(lines)) * lineHeight}
	for i, line := range lines {
		w := float64(len([]rune(line))) * charWidth
		if maxWidth > 0 && w > maxWidth {
			w = maxWidth
		}
		result.Lines = append(result.Lines, compose.LineMetrics{Width: w, Ascent: fontSize * 0.8, Descent: fontSize * 0.2, Baseline: float64(i)*lineHeight + fontSize*0.8})
		if w > result.Width {
			result.Width = w
		}
	}
	return result
}

// EbitenFontProvider loads font face bytes into ebiten text/v2 sources and
// hands the resulting faces to a FaceTextMeasurer (spec §6 "FontProvider.
// load(face_bytes[]) → FontHandle").
type EbitenFontProvider struct {
	measurer *FaceTextMeasurer
	next     compose.FontHandle
}

// NewEbitenFontProvider binds a provider to the measurer its loaded faces
// should register into.
func NewEbitenFontProvider(measurer *FaceTextMeasurer) *EbitenFontProvider {
	return &EbitenFontProvider{measurer: measurer}
}

var _ compose.FontProvider = (*EbitenFontProvider)(nil)

func (p *EbitenFontProvider) Load(faceBytes []byte) (compose.FontHandle, error) {
	source, err := text.NewGoTextFaceSource(strings.NewReader(string(faceBytes)))
	if err != nil {
		return 0, err
	}
	p.next++
	handle := p.next
	p.measurer.faces[handle] = &text.GoTextFace{Source: source}
	return handle, nil
}
