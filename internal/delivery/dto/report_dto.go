package dto

type StatisticsResponse struct {
	ByStatus map[string]int64 `json:"by_status"`
	Total    int64            `json:"total"`
	Today    int64            `json:"today"`
}

type ServiceTypesResponse struct {
	ServiceTypes []string `json:"service_types"`
}
