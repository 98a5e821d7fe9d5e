// Package library manages the user's on-disk content: message templates,
// sender profiles, greeting and closing phrases, and office locations.
//
// Templates are plain text files with an optional YAML frontmatter header
// carrying the mail subject:
//
//	---
//	subject: Weekly report
//	---
//	Please find this week's numbers below.
package library
