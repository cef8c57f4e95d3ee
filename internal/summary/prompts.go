package summary

import (
	"fmt"
	"strings"
)

const (
	summarizeSystemPrompt  = "You are a helpful assistant that summarizes news articles."
	categorizeSystemPrompt = "You are a helpful assistant that categorizes news articles."
)

func summarizePrompt(content string) string {
	return fmt.Sprintf(
		"Summarize the following news article in a concise summary. "+
			"Keep the summary informative and factual. Maximum length: 200 characters.\n\n"+
			"Article:\n%s\n\nSummary:", content)
}

func categorizePrompt(content, title string) string {
	return fmt.Sprintf(
		"Categorize the following news article into ONE of these categories: %s. "+
			"Respond with just the category name, nothing else.\n\n"+
			"Title: %s\n\nArticle:\n%s\n\nCategory:",
		strings.Join(Categories, ", "), title, truncate(content, 1000))
}
