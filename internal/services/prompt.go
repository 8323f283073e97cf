package services

import (
	"time"

	"github.com/GregMSThompson/swift-sage/internal/dto"
)

func systemPrompt(now time.Time, client dto.ClientContext) string {
	loc := time.UTC
	if client.TimeZone != "" {
		if l, err := time.LoadLocation(client.TimeZone); err == nil {
			loc = l
		}
	}
	location := client.Location()
	if location == "" {
		location = "unknown"
	}

	return "You are Swift Sage, a voice assistant that manages the user's Todoist tasks. " +
		"Use the tools to list, create, complete, update, or delete tasks and to list projects. " +
		"Only mention tasks and projects that appear in tool results; never invent them. " +
		"If a tool reports an error or finds nothing, tell the user plainly and apologetically. " +
		"Your replies are spoken aloud, so keep them short and conversational, with no markdown. " +
		"The user's location is " + location + ". " +
		"The user's local time is " + now.In(loc).Format("Monday, January 2, 2006 3:04 PM MST") + "."
}
