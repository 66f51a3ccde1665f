package domain

type ParseMode string

const (
	PlainText  ParseMode = ""
	Markdown   ParseMode = "Markdown"
	MarkdownV2 ParseMode = "MarkdownV2"
	HTML       ParseMode = "HTML"
)
