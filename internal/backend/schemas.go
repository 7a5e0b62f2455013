// internal/backend/schemas.go
package backend

import "skillmatch/internal/common/validation"

var (
	companyResponseSchema = validation.MustCompile("company-response", `{
		"type": "object",
		"required": ["total_matches"],
		"properties": {
			"total_matches": {"type": "integer", "minimum": 0}
		}
	}`)

	searchResponseSchema = validation.MustCompile("search-response", `{
		"type": "object",
		"required": ["matching_resumes"],
		"properties": {
			"matching_resumes": {
				"type": "array",
				"items": {"type": "object"}
			}
		}
	}`)

	uploadResponseSchema = validation.MustCompile("upload-response", `{
		"type": "object",
		"required": ["pdf_url", "document_id"],
		"properties": {
			"pdf_url": {"type": "string", "minLength": 1},
			"document_id": {"type": "string", "minLength": 1},
			"message": {"type": "string"}
		}
	}`)
)
