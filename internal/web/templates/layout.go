package templates

import (
	"github.com/a-h/templ"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

type navLink struct {
	Href  templ.SafeURL
	Label string
}

var navLinks = []navLink{
	{"/", "Dashboard"},
	{"/cases", "Cases"},
	{"/templates", "Templates"},
	{"/runner", "Runner"},
	{"/reports", "Reports"},
	{"/generator", "Generator"},
	{"/settings", "Settings"},
}

var (
	formMethods   = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}
	formBodyTypes = []string{domain.BodyJSON, domain.BodyFormData, domain.BodyRaw, domain.BodyNone}
	formAuthTypes = []string{domain.AuthNone, domain.AuthBearer, domain.AuthAPIKey, domain.AuthBasic, domain.AuthCustom}
	tabs          = []string{"all", "pass", "fail"}
	statusFilters = []domain.StatusFilter{domain.StatusAll, domain.StatusActive, domain.StatusInactive}
)

// maxFeedLines bounds the log feed rendered per update.
const maxFeedLines = 200

func feedTail(logs []domain.LogEntry) []domain.LogEntry {
	if len(logs) > maxFeedLines {
		return logs[len(logs)-maxFeedLines:]
	}
	return logs
}
