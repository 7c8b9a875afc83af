package transfer

// ThreadsErrorResponse is the Graph API error envelope. Only the message is
// surfaced to operators; the rest is kept for logs.
type ThreadsErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		IsTransient  bool   `json:"is_transient"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}
