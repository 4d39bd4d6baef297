package evidence

import (
	"regexp"
	"strings"

	"github.com/forgeline/forge-backend/internal/forge"
)

// DepthClassifier turns a delivery's descriptive text into a boolean depth
// feature vector. It is pluggable so the keyword vocabulary can evolve
// without touching the scoring engine.
type DepthClassifier func(text string) forge.DepthFlags

var depthVocabulary = map[string]*regexp.Regexp{
	"auth":         regexp.MustCompile(`(?i)\b(auth|oauth|login|sso|jwt|session|signup|sign.?in)\b`),
	"database":     regexp.MustCompile(`(?i)\b(postgres|postgresql|mysql|sqlite|mongo|mongodb|redis|database|db|sql|supabase|firestore)\b`),
	"api":          regexp.MustCompile(`(?i)\b(api|rest|graphql|grpc|endpoint|webhook)\b`),
	"integrations": regexp.MustCompile(`(?i)\b(integration|twilio|sendgrid|slack|discord|zapier|openai|anthropic|s3|aws|gcp)\b`),
	"payments":     regexp.MustCompile(`(?i)\b(stripe|payment|billing|checkout|subscription|paypal)\b`),
	"jobs":         regexp.MustCompile(`(?i)\b(cron|queue|worker|background|scheduler|celery|sidekiq|job)\b`),
}

// ClassifyDepth is the default keyword classifier over the concatenation of
// a delivery's stack tags and title.
func ClassifyDepth(text string) forge.DepthFlags {
	return forge.DepthFlags{
		Auth:         depthVocabulary["auth"].MatchString(text),
		Database:     depthVocabulary["database"].MatchString(text),
		API:          depthVocabulary["api"].MatchString(text),
		Integrations: depthVocabulary["integrations"].MatchString(text),
		Payments:     depthVocabulary["payments"].MatchString(text),
		Jobs:         depthVocabulary["jobs"].MatchString(text),
	}
}

// depthText builds the classifier input from stack tags and title.
func depthText(stack []string, title string) string {
	return strings.Join(stack, " ") + " " + title
}
