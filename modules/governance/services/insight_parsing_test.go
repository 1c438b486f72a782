package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessinsight/accessinsight/modules/governance/domain/aggregates/user"
)

func TestParseAIReport(t *testing.T) {
	raw := `{"risks":[{"title":"Shared admin","description":"x","severity":"high"}],"observations":["ok"],"suggestions":[]}`

	report, err := parseAIReport(raw)
	require.NoError(t, err)
	require.Len(t, report.Risks, 1)
	assert.Equal(t, "high", report.Risks[0].Severity)
	assert.Equal(t, []string{"ok"}, report.Observations)
}

func TestParseAIReport_CodeFenced(t *testing.T) {
	raw := "```json\n{\"risks\":[],\"observations\":[],\"suggestions\":[\"rotate keys\"]}\n```"

	report, err := parseAIReport(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"rotate keys"}, report.Suggestions)
}

func TestParseAIReport_Garbage(t *testing.T) {
	_, err := parseAIReport("I cannot answer that.")
	require.Error(t, err)
}

func TestSummarizeUsers_Truncates(t *testing.T) {
	now := time.Now()
	users := []user.User{
		user.New("a@x.co", user.WithAccesses([]user.Access{user.NewAccess("ERP", "Admin", now)})),
		user.New("b@x.co", user.WithAccesses([]user.Access{user.NewAccess("CRM", "Viewer", now)})),
		user.New("c@x.co", user.WithAccesses([]user.Access{user.NewAccess("BI", "Viewer", now)})),
	}

	summary := summarizeUsers(users, 2)
	assert.Contains(t, summary, "a@x.co -> ERP:Admin")
	assert.Contains(t, summary, "b@x.co")
	assert.NotContains(t, summary, "c@x.co")
}
