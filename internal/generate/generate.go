// Package generate composes evaluation sentences from stored observation
// records and logs each result through the record store.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khanglvm/recordbook/internal/logger"
	"github.com/khanglvm/recordbook/internal/store"
	"github.com/khanglvm/recordbook/internal/taxonomy"
)

// ErrNoTargets is returned when a request selects no roster student.
var ErrNoTargets = errors.New("no students selected for generation")

const (
	DefaultCategory  = "세특"
	DefaultStyle     = "서술체"
	DefaultCharCount = 300

	StyleConcise  = "간결체"
	StyleDetailed = "구체적"
)

const (
	closingSentence  = "앞으로도 적극적인 자세로 교과 활동에 임할 것으로 기대됨."
	fallbackSentence = "성실한 태도로 수업에 참여하며, 교사의 설명을 경청하는 자세가 바름. 과제 수행에 있어서도 책임감 있는 모습을 보여주며 꾸준히 노력하는 모습이 긍정적임."
)

// Request selects who to generate for and how.
type Request struct {
	// StudentIDs limits generation to these roster students. Empty means everyone.
	StudentIDs []string `json:"studentIds"`
	Category   string   `json:"category"`
	CharCount  int      `json:"charCount"`
	Style      string   `json:"style"`
}

// Generator produces and logs generated content.
type Generator struct {
	store *store.Store
	tax   *taxonomy.Taxonomy
	pace  time.Duration
	log   *logger.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithPace waits d before each student, imitating a remote model call.
func WithPace(d time.Duration) Option {
	return func(g *Generator) { g.pace = d }
}

func WithLogger(log *logger.Logger) Option {
	return func(g *Generator) { g.log = log }
}

// New creates a generator. tax may be nil, in which case requests are not
// checked against the taxonomy and the detailed style adds nothing.
func New(st *store.Store, tax *taxonomy.Taxonomy, opts ...Option) *Generator {
	g := &Generator{store: st, tax: tax, log: logger.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With("component", "generate")
	return g
}

// Generate writes one entry per target student, in roster order, and returns
// the new entries in that order. Entries already logged stay logged when a
// later student fails or ctx is canceled.
func (g *Generator) Generate(ctx context.Context, req Request) ([]store.GeneratedContent, error) {
	req = withDefaults(req)
	if g.tax != nil {
		if !g.tax.HasCategory(req.Category) {
			return nil, fmt.Errorf("%w: %q", taxonomy.ErrUnknownCategory, req.Category)
		}
		if err := g.tax.ValidateStyle(req.Style); err != nil {
			return nil, err
		}
	}

	students, err := g.store.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	targets := selectTargets(students, req.StudentIDs)
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	records, err := g.store.ListRecords(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[string][]store.ObservationRecord)
	for _, r := range records {
		byStudent[r.StudentID] = append(byStudent[r.StudentID], r)
	}

	out := make([]store.GeneratedContent, 0, len(targets))
	for _, st := range targets {
		if err := g.wait(ctx); err != nil {
			return out, err
		}

		content := g.Compose(st, req.Category, req.Style, byStudent[st.ID])
		item, err := g.store.AppendGenerated(ctx, store.GeneratedInput{
			StudentID: st.ID,
			Category:  req.Category,
			Content:   content,
			CharCount: req.CharCount,
			Style:     req.Style,
		})
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}

	g.log.Info("generated content", "category", req.Category, "count", len(out))
	return out, nil
}

// Compose builds the text for one student from that student's records of category.
func (g *Generator) Compose(st store.Student, category, style string, records []store.ObservationRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s 학생은 %s 활동에서 ", st.Name, category)

	if len(records) == 0 {
		b.WriteString(fallbackSentence)
		return b.String()
	}

	points := make([]string, len(records))
	for i, r := range records {
		points[i] = r.Point
	}
	fmt.Fprintf(&b, "%s 등의 역량이 돋보임. ", strings.Join(points, ", "))

	for _, r := range records {
		if r.Memo != "" {
			fmt.Fprintf(&b, "특히 %s하는 모습이 인상적임. ", r.Memo)
		}
		if style == StyleDetailed {
			for _, phrase := range g.checkedPhrases(r) {
				fmt.Fprintf(&b, "%s. ", phrase)
			}
		}
	}

	if style == StyleConcise {
		return strings.TrimRight(b.String(), " ")
	}
	b.WriteString(closingSentence)
	return b.String()
}

func (g *Generator) checkedPhrases(r store.ObservationRecord) []string {
	if g.tax == nil {
		return nil
	}
	examples := g.tax.Examples(r.Category, r.SubCategory, r.Point)
	var phrases []string
	for _, i := range r.CheckedExamples {
		if i >= 0 && i < len(examples) {
			phrases = append(phrases, examples[i])
		}
	}
	return phrases
}

func (g *Generator) wait(ctx context.Context) error {
	if g.pace <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.pace)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func withDefaults(req Request) Request {
	if req.Category == "" {
		req.Category = DefaultCategory
	}
	if req.Style == "" {
		req.Style = DefaultStyle
	}
	if req.CharCount <= 0 {
		req.CharCount = DefaultCharCount
	}
	return req
}

// selectTargets keeps roster order. Ids not on the roster are ignored.
func selectTargets(students []store.Student, ids []string) []store.Student {
	if len(ids) == 0 {
		return students
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var targets []store.Student
	for _, st := range students {
		if want[st.ID] {
			targets = append(targets, st)
		}
	}
	return targets
}
