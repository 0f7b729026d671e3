package tui

// truncate shortens a string to limit with ellipsis
func truncate(s string, limit int) string {
	if limit <= 3 {
		return s
	}
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
