package request

type SubmitRunRequest struct {
	IntervalHours int  `json:"interval_hours"`
	MaxCount      int  `json:"max_count"`
	Incremental   bool `json:"incremental"`
}
