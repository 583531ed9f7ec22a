package documents

import "time"

// DocumentResponse is the outward-facing representation of a stored document.
type DocumentResponse struct {
	ID        int64     `json:"id"`
	Summary   *string   `json:"summary"`
	Filename  string    `json:"filename"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UploadedResponse is returned per committed file of an upload.
type UploadedResponse struct {
	ID       int64   `json:"id"`
	Filename string  `json:"filename"`
	Summary  *string `json:"summary"`
}

// ToResponse maps a document for profile listings.
func ToResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:        doc.ID,
		Summary:   doc.Summary,
		Filename:  doc.Filename,
		UpdatedAt: doc.UpdatedAt,
	}
}

// ToResponses maps docs and never returns nil.
func ToResponses(docs []Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, ToResponse(doc))
	}
	return out
}

// ToUploaded maps a freshly committed document.
func ToUploaded(doc Document) UploadedResponse {
	return UploadedResponse{
		ID:       doc.ID,
		Filename: doc.Filename,
		Summary:  doc.Summary,
	}
}
