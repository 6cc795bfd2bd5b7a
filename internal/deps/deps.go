package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"pictor/internal/config"
)

// Requirement defines an external binary the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// DefaultRequirements lists the conversion tools the pipeline shells out
// to, resolved from configuration.
func DefaultRequirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "tiffcp",
			Command:     cfg.Tools.TiffCp,
			Description: "Required to convert tiled TIFFs to striped layout",
		},
		{
			Name:        "opj_compress",
			Command:     cfg.Tools.OpjCompress,
			Description: "Required to encode JPEG2000 derivatives",
		},
		{
			Name:        "img2pdf",
			Command:     cfg.Tools.Img2PDF,
			Description: "Required to assemble the concatenated PDF",
		},
		{
			Name:        "Ghostscript",
			Command:     cfg.Tools.Ghostscript,
			Description: "Required to compress the PDF",
		},
		{
			Name:        "OCRmyPDF",
			Command:     cfg.Tools.OCRmyPDF,
			Description: "Required to add the searchable text layer",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
