package export

// Dataset defines tabular export content with optional heading details.
type Dataset struct {
	Title   string
	Details []Detail
	Headers []string
	Rows    []map[string]string
}

// Detail is a labelled value printed above the table.
type Detail struct {
	Label string
	Value string
}

// Renderer turns a dataset into downloadable bytes.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}
