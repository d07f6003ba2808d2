// Package moderation screens chat content and keeps report/block bookkeeping
// consulted by the matcher.
package moderation

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voicechat-service/internal/telemetry"
)

// Report records one participant reporting another.
type Report struct {
	ID         string    `json:"id"`
	ReporterID string    `json:"reporter_id"`
	TargetID   string    `json:"target_id"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

var defaultBlockedPatterns = []string{
	`(?i)\b(https?://|www\.)\S+`,
	`(?i)\b[\w.+-]+@[\w-]+\.[a-z]{2,}\b`,
	`\b\d{7,}\b`,
}

// Gateway holds the screening heuristic and report/block tables.
type Gateway struct {
	keywords []string
	patterns []*regexp.Regexp
	reports  []Report
	blocks   map[string]map[string]struct{} // blocker -> blocked set
	audit    *telemetry.AuditEmitter
	log      *zap.Logger
}

// New builds a gateway with the given keyword list on top of the built-in
// contact-info patterns. audit may be nil.
func New(keywords []string, audit *telemetry.AuditEmitter, log *zap.Logger) *Gateway {
	patterns := make([]*regexp.Regexp, 0, len(defaultBlockedPatterns))
	for _, p := range defaultBlockedPatterns {
		patterns = append(patterns, regexp.MustCompile(p))
	}
	return &Gateway{
		keywords: keywords,
		patterns: patterns,
		blocks:   make(map[string]map[string]struct{}),
		audit:    audit,
		log:      log,
	}
}

// Screen checks chat content before it reaches the session log. It returns
// false with a reason when the content must not be relayed.
func (g *Gateway) Screen(senderID, content string) (bool, string) {
	lowered := strings.ToLower(content)
	for _, kw := range g.keywords {
		if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
			g.emit(senderID, "message blocked by keyword")
			return false, "blocked keyword"
		}
	}
	for _, re := range g.patterns {
		if re.MatchString(content) {
			g.emit(senderID, "message blocked by pattern")
			return false, "contact information is not allowed"
		}
	}
	return true, ""
}

// Report stores a report and blocks the pair in both directions.
func (g *Gateway) Report(reporterID, targetID, reason string) Report {
	r := Report{
		ID:         uuid.New().String(),
		ReporterID: reporterID,
		TargetID:   targetID,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}
	g.reports = append(g.reports, r)
	g.Block(reporterID, targetID)
	g.log.Info("participant reported",
		zap.String("reporter", reporterID),
		zap.String("target", targetID),
		zap.String("reason", reason))
	g.emit(reporterID, "participant report: "+reason)
	return r
}

// Block prevents the pair from being matched again.
func (g *Gateway) Block(blockerID, blockedID string) {
	if g.blocks[blockerID] == nil {
		g.blocks[blockerID] = make(map[string]struct{})
	}
	g.blocks[blockerID][blockedID] = struct{}{}
}

// IsBlocked reports whether either side has blocked the other.
func (g *Gateway) IsBlocked(a, b string) bool {
	if set, ok := g.blocks[a]; ok {
		if _, blocked := set[b]; blocked {
			return true
		}
	}
	if set, ok := g.blocks[b]; ok {
		if _, blocked := set[a]; blocked {
			return true
		}
	}
	return false
}

// Reports returns the accumulated reports.
func (g *Gateway) Reports() []Report {
	return g.reports
}

func (g *Gateway) emit(participantID, text string) {
	if g.audit == nil {
		return
	}
	id := participantID
	g.audit.Emit(context.Background(), "warn", text, &id)
}
