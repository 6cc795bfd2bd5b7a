package bags

import (
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// OriginDigitization is the only producer tag accepted downstream.
const OriginDigitization = "digitization"

// Status represents a bag's position in the derivative pipeline.
type Status string

const (
	StatusCreated          Status = "created"
	StatusPreparing        Status = "preparing"
	StatusPrepared         Status = "prepared"
	StatusNormalizingTIFFs Status = "normalizing_tiffs"
	StatusTIFFsNormalized  Status = "tiffs_normalized"
	StatusMakingJP2s       Status = "making_jp2s"
	StatusJP2sCreated      Status = "jp2s_created"
	StatusMakingPDF        Status = "making_pdf"
	StatusPDFCreated       Status = "pdf_created"
	StatusCompressingPDF   Status = "compressing_pdf"
	StatusPDFCompressed    Status = "pdf_compressed"
	StatusOCRingPDF        Status = "ocring_pdf"
	StatusPDFOCRed         Status = "pdf_ocred"
	StatusMakingManifests  Status = "making_manifests"
	StatusManifestsCreated Status = "manifests_created"
	StatusUploading        Status = "uploading"
	StatusUploaded         Status = "uploaded"
	StatusCleaningUp       Status = "cleaning_up"
	StatusCleanedUp        Status = "cleaned_up"
)

// allStatuses is the single definition of the pipeline order. Every
// precondition, claim, and advance comparison derives from it.
var allStatuses = []Status{
	StatusCreated,
	StatusPreparing,
	StatusPrepared,
	StatusNormalizingTIFFs,
	StatusTIFFsNormalized,
	StatusMakingJP2s,
	StatusJP2sCreated,
	StatusMakingPDF,
	StatusPDFCreated,
	StatusCompressingPDF,
	StatusPDFCompressed,
	StatusOCRingPDF,
	StatusPDFOCRed,
	StatusMakingManifests,
	StatusManifestsCreated,
	StatusUploading,
	StatusUploaded,
	StatusCleaningUp,
	StatusCleanedUp,
}

var statusIndex = func() map[Status]int {
	index := make(map[Status]int, len(allStatuses))
	for i, status := range allStatuses {
		index[status] = i
	}
	return index
}()

// rollbackTargets maps each in-progress marker to the start status the
// claiming stage reverts to on failure or stall reclaim.
var rollbackTargets = map[Status]Status{
	StatusPreparing:        StatusCreated,
	StatusNormalizingTIFFs: StatusPrepared,
	StatusMakingJP2s:       StatusTIFFsNormalized,
	StatusMakingPDF:        StatusJP2sCreated,
	StatusCompressingPDF:   StatusPDFCreated,
	StatusOCRingPDF:        StatusPDFCompressed,
	StatusMakingManifests:  StatusPDFOCRed,
	StatusUploading:        StatusManifestsCreated,
	StatusCleaningUp:       StatusUploaded,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusIndex[normalized]
	return normalized, ok
}

// Index returns the status position in the pipeline order, or -1 for an
// unknown status.
func (s Status) Index() int {
	idx, ok := statusIndex[s]
	if !ok {
		return -1
	}
	return idx
}

// Before reports whether s precedes other in the pipeline order.
func (s Status) Before(other Status) bool {
	return s.Index() >= 0 && other.Index() >= 0 && s.Index() < other.Index()
}

// InProgress reports whether the status is a stage claim marker.
func (s Status) InProgress() bool {
	_, ok := rollbackTargets[s]
	return ok
}

// RollbackTarget returns the start status an in-progress marker reverts
// to. The second result is false for statuses that are not markers.
func RollbackTarget(s Status) (Status, bool) {
	target, ok := rollbackTargets[s]
	return target, ok
}

// Bag represents one digitized package moving through the pipeline.
type Bag struct {
	ID                int64
	Identifier        string
	Origin            string
	LocalPath         string
	DerivedIdentifier string
	Title             string
	DisplayDate       string
	PDFPath           string
	Status            Status
	ErrorMessage      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DeriveIdentifier generates the short identifier used to name every
// derivative artifact. The same archival URI always yields the same
// identifier, which manifest recreation depends on.
func DeriveIdentifier(uri string) string {
	return shortuuid.NewWithNamespace(uri)
}
