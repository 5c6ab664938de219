package models

type UploadResponse struct {
	Status             string `json:"status"`
	Message            string `json:"message"`
	DocumentsExtracted int    `json:"documents_extracted"`
}

type QueryResponse struct {
	Answer string   `json:"answer"`
	Images []string `json:"images"`
}
