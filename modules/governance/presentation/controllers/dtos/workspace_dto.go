package dtos

// APIError is the JSON error envelope returned by every API handler.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

type ImportSummaryResponse struct {
	RowsMerged   int `json:"rowsMerged"`
	NewUsers     int `json:"newUsers"`
	UsersTotal   int `json:"usersTotal"`
	SystemsTotal int `json:"systemsTotal"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type UserPatchRequest struct {
	Name    *string `json:"name"`
	Company *string `json:"company"`
}
