// Package imaging reads raster metadata (TIFF and JPEG2000 dimensions,
// tiled-layout detection) and derives JPEG2000 encoding parameters.
package imaging
