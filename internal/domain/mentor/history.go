package mentor

// HistoryWindow is the number of most recent turns forwarded to the
// model. The service holds no other conversation memory.
const HistoryWindow = 8

// Turn is one prior message of the conversation, role "user" or "model".
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Window trims history to the last HistoryWindow turns and normalizes
// roles: anything that is not "user" counts as the model side.
func Window(history []Turn) []Turn {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	out := make([]Turn, len(history))
	for i, t := range history {
		role := "model"
		if t.Role == "user" {
			role = "user"
		}
		out[i] = Turn{Role: role, Content: t.Content}
	}
	return out
}
