package config

const (
	defaultSrcDir          = "~/.local/share/pictor/src"
	defaultTmpDir          = "~/.local/share/pictor/tmp"
	defaultLogDir          = "~/.local/share/pictor/logs"
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
	defaultIIIFVersion     = 2
	defaultToolTimeout     = 0
	defaultRequestTimeout  = 30
	defaultTiffCpBinary    = "tiffcp"
	defaultOpjBinary       = "opj_compress"
	defaultImg2PDFBinary   = "img2pdf"
	defaultGSBinary        = "gs"
	defaultOCRmyPDFBinary  = "ocrmypdf"
	defaultStorageRegion   = "us-east-1"
	defaultRepositoryID    = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SrcDir: defaultSrcDir,
			TmpDir: defaultTmpDir,
			LogDir: defaultLogDir,
		},
		ArchivesSpace: ArchivesSpace{
			Repository:     defaultRepositoryID,
			TimeoutSeconds: defaultRequestTimeout,
		},
		Description: Description{
			TimeoutSeconds: defaultRequestTimeout,
		},
		Storage: Storage{
			Region: defaultStorageRegion,
		},
		IIIF: IIIF{
			Version: defaultIIIFVersion,
		},
		Tools: Tools{
			TiffCp:         defaultTiffCpBinary,
			OpjCompress:    defaultOpjBinary,
			Img2PDF:        defaultImg2PDFBinary,
			Ghostscript:    defaultGSBinary,
			OCRmyPDF:       defaultOCRmyPDFBinary,
			TimeoutSeconds: defaultToolTimeout,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
