package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/accessinsight/accessinsight/modules/governance/domain/aggregates/user"
	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
)

type Insight struct {
	Rule        string   `json:"rule"`
	Severity    string   `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Users       []string `json:"users"`
}

type AIRisk struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type AIReport struct {
	Risks        []AIRisk `json:"risks"`
	Observations []string `json:"observations"`
	Suggestions  []string `json:"suggestions"`
}

var (
	elevatedKeywords = []string{"admin", "super", "owner", "root", "manager"}
	limitedKeywords  = []string{"viewer", "read", "leitura", "consulta", "guest", "basic"}
)

const accumulationThreshold = 3

type InsightServiceOptions struct {
	APIKey   string
	BaseURL  string
	Model    string
	MaxUsers int
}

type InsightService struct {
	opts InsightServiceOptions
}

func NewInsightService(opts InsightServiceOptions) *InsightService {
	if opts.MaxUsers <= 0 {
		opts.MaxUsers = 50
	}
	return &InsightService{opts: opts}
}

func profileMatches(profile string, keywords []string) bool {
	p := strings.ToLower(profile)
	for _, kw := range keywords {
		if strings.Contains(p, kw) {
			return true
		}
	}
	return false
}

// Analyze runs the local rule set: elevated privileges, access
// accumulation and mixed privilege levels on one user.
func (s *InsightService) Analyze(snap snapshot.Snapshot) []Insight {
	var elevated, accumulating, mixed []string

	for _, u := range snap.Users {
		hasElevated := false
		hasLimited := false
		for _, a := range u.Accesses() {
			if profileMatches(a.Profile(), elevatedKeywords) {
				hasElevated = true
			}
			if profileMatches(a.Profile(), limitedKeywords) {
				hasLimited = true
			}
		}
		if hasElevated {
			elevated = append(elevated, u.Identifier())
		}
		if len(u.Accesses()) >= accumulationThreshold {
			accumulating = append(accumulating, u.Identifier())
		}
		if hasElevated && hasLimited {
			mixed = append(mixed, u.Identifier())
		}
	}

	insights := make([]Insight, 0, 3)
	if len(elevated) > 0 {
		insights = append(insights, Insight{
			Rule:        "elevated-privileges",
			Severity:    "high",
			Title:       "Users with elevated privileges",
			Description: fmt.Sprintf("%d user(s) hold administrative or owner-level profiles.", len(elevated)),
			Users:       elevated,
		})
	}
	if len(accumulating) > 0 {
		insights = append(insights, Insight{
			Rule:        "access-accumulation",
			Severity:    "medium",
			Title:       "Access accumulation",
			Description: fmt.Sprintf("%d user(s) hold access to %d or more systems.", len(accumulating), accumulationThreshold),
			Users:       accumulating,
		})
	}
	if len(mixed) > 0 {
		insights = append(insights, Insight{
			Rule:        "profile-discrepancy",
			Severity:    "low",
			Title:       "Mixed privilege levels",
			Description: fmt.Sprintf("%d user(s) combine elevated and restricted profiles across systems.", len(mixed)),
			Users:       mixed,
		})
	}
	return insights
}

func summarizeUsers(users []user.User, limit int) string {
	if len(users) > limit {
		users = users[:limit]
	}
	var b strings.Builder
	for _, u := range users {
		pairs := make([]string, 0, len(u.Accesses()))
		for _, a := range u.Accesses() {
			pairs = append(pairs, a.SystemName()+":"+a.Profile())
		}
		fmt.Fprintf(&b, "%s -> %s\n", u.Identifier(), strings.Join(pairs, ", "))
	}
	return b.String()
}

const aiSystemPrompt = `You are an access-governance analyst. Given a list of users and their
system:profile pairs, respond with strict JSON only, no markdown, in the shape:
{"risks":[{"title":"","description":"","severity":"high|medium|low"}],"observations":[""],"suggestions":[""]}`

// AnalyzeWithAI asks a chat-completion model for a structured verdict
// on the current access matrix. Best-effort: it never mutates state and
// callers treat failures as non-fatal.
func (s *InsightService) AnalyzeWithAI(ctx context.Context, snap snapshot.Snapshot) (*AIReport, error) {
	if s.opts.APIKey == "" {
		return nil, fmt.Errorf("AI analysis is not configured")
	}
	if len(snap.Users) == 0 {
		return &AIReport{Observations: []string{"The workspace is empty."}}, nil
	}

	var client openai.Client
	if s.opts.BaseURL != "" {
		client = openai.NewClient(
			option.WithAPIKey(s.opts.APIKey),
			option.WithBaseURL(s.opts.BaseURL),
		)
	} else {
		client = openai.NewClient(
			option.WithAPIKey(s.opts.APIKey),
		)
	}

	response, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(aiSystemPrompt),
			openai.UserMessage(summarizeUsers(snap.Users, s.opts.MaxUsers)),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get AI response: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	return parseAIReport(response.Choices[0].Message.Content)
}

// parseAIReport tolerates models that wrap JSON in code fences.
func parseAIReport(raw string) (*AIReport, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var report AIReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("failed to parse AI verdict: %w", err)
	}
	return &report, nil
}
