package export

// Report formats.
const (
	FormatCSV   = "csv"
	FormatChart = "chart"
)

// Formats lists every format a report can be written in.
var Formats = []string{FormatCSV, FormatChart}

type ExportRequest struct {
	OutputDir string   `json:"output_dir"`
	Formats   []string `json:"formats,omitempty"`
}

type ExportResponse struct {
	Status      string   `json:"status"`
	OutputPaths []string `json:"output_paths"`
	Analyses    int      `json:"analyses"`
}
