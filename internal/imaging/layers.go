package imaging

// baselineEdge is the smallest derivative edge served by the image API.
// Resolution layer counts are the number of doublings between it and the
// longest image edge, plus one for the full-resolution layer.
const baselineEdge = 96

// ResolutionLayers derives the JPEG2000 wavelet resolution layer count
// from pixel dimensions. A 96x96 image yields 1; each doubling of the
// longest edge beyond 96 adds a layer.
func ResolutionLayers(width, height int) int {
	longest := width
	if height > longest {
		longest = height
	}
	layers := 1
	for edge := baselineEdge; edge*2 <= longest; edge *= 2 {
		layers++
	}
	return layers
}
