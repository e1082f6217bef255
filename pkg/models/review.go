package models

// CodeReviewResult is the code-review workflow's output, consumed by the
// ticket state machine for phase inference and comment linkage.
type CodeReviewResult struct {
	Number           int    `json:"number"`
	URL              string `json:"url,omitempty"`
	Title            string `json:"title,omitempty"`
	Action           string `json:"action"`
	State            string `json:"state"`
	Draft            bool   `json:"draft"`
	Merged           bool   `json:"merged"`
	ChangesRequested bool   `json:"changes_requested"`
	ReviewComments   int    `json:"review_comments"`
}
