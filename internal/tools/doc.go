// Package tools runs the external conversion binaries (tiffcp,
// opj_compress, img2pdf, ghostscript, ocrmypdf) as exit-code-checked
// black boxes.
package tools
