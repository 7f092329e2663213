package submissions

import "formrelay/internal/domain"

type ListResult struct {
	Submissions []domain.Submission `json:"submissions"`
	Total       int64               `json:"total"`
	Page        int                 `json:"page"`
	PerPage     int                 `json:"per_page"`
	Pages       int                 `json:"pages"`
}

type Stats struct {
	TotalApiKeys      int64 `json:"total_api_keys"`
	ActiveApiKeys     int64 `json:"active_api_keys"`
	TotalSubmissions  int64 `json:"total_submissions"`
	RecentSubmissions int64 `json:"recent_submissions"`
	TotalFiles        int64 `json:"total_files"`
}
