package qa

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shaiso/surveyqc/internal/domain"
	"github.com/shaiso/surveyqc/internal/rules"
	"github.com/shaiso/surveyqc/internal/steps"
)

// Типы дефектов.
const (
	IssueCountNonNumeric   = "count_non_numeric"
	IssueCountZeroToken    = "count_zero_token"
	IssueCountBlank        = "count_blank"
	IssueCountOutlier      = "count_outlier"
	IssueWeightNonNumeric  = "weight_non_numeric"
	IssueWeightBlank       = "weight_blank"
	IssueWeightOutlier     = "weight_outlier"
	IssueSpeciesVariant    = "species_variant"
	IssueSpeciesUnresolved = "species_unresolved"
	IssueDateUnparseable   = "date_unparseable"
	IssueDuplicateKey      = "duplicate_key"
	IssueExactDuplicate    = "exact_duplicate"
)

// Severity — важность дефекта.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

var issueSeverity = map[string]Severity{
	IssueCountNonNumeric:   SeverityHigh,
	IssueCountZeroToken:    SeverityLow,
	IssueCountBlank:        SeverityLow,
	IssueCountOutlier:      SeverityMedium,
	IssueWeightNonNumeric:  SeverityHigh,
	IssueWeightBlank:       SeverityLow,
	IssueWeightOutlier:     SeverityMedium,
	IssueSpeciesVariant:    SeverityMedium,
	IssueSpeciesUnresolved: SeverityHigh,
	IssueDateUnparseable:   SeverityHigh,
	IssueDuplicateKey:      SeverityMedium,
	IssueExactDuplicate:    SeverityMedium,
}

// Issue — класс дефекта и число затронутых строк.
type Issue struct {
	Type       string   `json:"type"`
	Severity   Severity `json:"severity"`
	Field      string   `json:"field"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`

	// Rows — первые позиции строк с дефектом (для отчёта).
	Rows []int `json:"rows,omitempty"`
}

// Report — профиль дефектов таблицы.
type Report struct {
	Rows   int     `json:"rows"`
	Issues []Issue `json:"issues"`

	// Spellings — различные написания по каноническому ключу вида.
	Spellings map[string][]string `json:"spellings,omitempty"`
}

// Total возвращает количество найденных дефектов по всем классам.
func (r *Report) Total() int {
	total := 0
	for _, i := range r.Issues {
		total += i.Count
	}
	return total
}

// Issue возвращает дефект по типу (нулевое значение, если не найден).
func (r *Report) Issue(issueType string) Issue {
	for _, i := range r.Issues {
		if i.Type == issueType {
			return i
		}
	}
	return Issue{Type: issueType, Severity: issueSeverity[issueType]}
}

// maxSampleRows — сколько позиций строк сохраняется в Issue.Rows.
const maxSampleRows = 10

// collector накапливает дефекты в порядке появления.
type collector struct {
	rows   int
	order  []string
	issues map[string]*Issue
}

func newCollector(rows int) *collector {
	return &collector{rows: rows, issues: make(map[string]*Issue)}
}

func (c *collector) add(issueType, field string, row int) {
	is, ok := c.issues[issueType]
	if !ok {
		is = &Issue{Type: issueType, Severity: issueSeverity[issueType], Field: field}
		c.issues[issueType] = is
		c.order = append(c.order, issueType)
	}
	is.Count++
	if len(is.Rows) < maxSampleRows {
		is.Rows = append(is.Rows, row)
	}
}

func (c *collector) list() []Issue {
	sort.Strings(c.order)
	out := make([]Issue, 0, len(c.order))
	for _, t := range c.order {
		is := *c.issues[t]
		if c.rows > 0 {
			is.Percentage = float64(is.Count) * 100 / float64(c.rows)
		}
		out = append(out, is)
	}
	return out
}

// Inspect строит профиль дефектов сырой таблицы.
func Inspect(raw *domain.RawTable, r *rules.Rules) *Report {
	if r == nil {
		r = rules.Default()
	}

	c := newCollector(raw.Len())
	spellings := make(map[string]map[string]bool)

	seenKeys := make(map[string]bool, raw.Len())
	seenRows := make(map[string]bool, raw.Len())

	for i, rec := range raw.Records {
		inspectCount(c, rec.Count, i, r)
		inspectWeight(c, rec.Weight, i, r)

		if key, ok := r.Resolve(rec.Species); ok {
			if rec.Species != key {
				c.add(IssueSpeciesVariant, domain.ColSpecies, i)
			}
			if spellings[key] == nil {
				spellings[key] = make(map[string]bool)
			}
			spellings[key][rec.Species] = true
		} else if !r.IsMissingToken(rec.Species) {
			c.add(IssueSpeciesUnresolved, domain.ColSpecies, i)
		}

		if !r.IsMissingToken(rec.SamplingDate) &&
			steps.ParseDate(rec.SamplingDate, steps.DefaultDateLayouts, r) == nil {
			c.add(IssueDateUnparseable, domain.ColSamplingDate, i)
		}

		rowKey := strings.Join(rec.Values(), "\x1f")
		if seenRows[rowKey] {
			c.add(IssueExactDuplicate, "", i)
		}
		seenRows[rowKey] = true

		key := rec.SiteID + "\x1f" + dateKey(rec.SamplingDate, r)
		if seenKeys[key] {
			c.add(IssueDuplicateKey, domain.ColSiteID+","+domain.ColSamplingDate, i)
		}
		seenKeys[key] = true
	}

	report := &Report{
		Rows:      raw.Len(),
		Issues:    c.list(),
		Spellings: make(map[string][]string, len(spellings)),
	}
	for key, set := range spellings {
		list := make([]string, 0, len(set))
		for s := range set {
			list = append(list, s)
		}
		sort.Strings(list)
		report.Spellings[key] = list
	}

	return report
}

// dateKey приводит дату к ISO, чтобы "2023/05/02" и "2023-05-02" совпадали.
func dateKey(raw string, r *rules.Rules) string {
	if d := steps.ParseDate(raw, steps.DefaultDateLayouts, r); d != nil {
		return d.Format(domain.DateLayout)
	}
	return strings.TrimSpace(raw)
}

func inspectCount(c *collector, raw string, row int, r *rules.Rules) {
	v, outcome := steps.CoerceCount(raw, r)
	switch outcome {
	case steps.OutcomeZeroed:
		c.add(IssueCountZeroToken, domain.ColCount, row)
	case steps.OutcomeBlank:
		c.add(IssueCountBlank, domain.ColCount, row)
	case steps.OutcomeInvalid:
		c.add(IssueCountNonNumeric, domain.ColCount, row)
	case steps.OutcomeParsed:
		if limit := r.Bounds.MaxCount; limit > 0 && *v > limit {
			c.add(IssueCountOutlier, domain.ColCount, row)
		}
	}
}

func inspectWeight(c *collector, raw string, row int, r *rules.Rules) {
	v, outcome := steps.CoerceWeight(raw, r)
	switch outcome {
	case steps.OutcomeBlank:
		c.add(IssueWeightBlank, domain.ColWeight, row)
	case steps.OutcomeZeroed, steps.OutcomeInvalid:
		c.add(IssueWeightNonNumeric, domain.ColWeight, row)
	case steps.OutcomeParsed:
		if limit := r.Bounds.MaxWeightKg; limit > 0 && *v > limit {
			c.add(IssueWeightOutlier, domain.ColWeight, row)
		}
	}
}

// Violation — нарушение инварианта очищенной таблицы.
type Violation struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// String форматирует нарушение для вывода.
func (v Violation) String() string {
	return fmt.Sprintf("row %d: %s=%q: %s", v.Row, v.Column, v.Value, v.Message)
}

// CheckCleaned проверяет инварианты очищенной таблицы, прочитанной из CSV.
//
// Пропуск обозначается "NA". Проверяются:
//   - count — целое неотрицательное число или пропуск
//   - weight — неотрицательное число или пропуск
//   - species — канонический ключ словаря или пропуск
//   - sampling_date — ISO дата или пропуск
//   - пары (site_id, sampling_date) уникальны
func CheckCleaned(raw *domain.RawTable, r *rules.Rules) []Violation {
	if r == nil {
		r = rules.Default()
	}

	var out []Violation
	seen := make(map[string]int, raw.Len())

	for i, rec := range raw.Records {
		if rec.Count != domain.MissingMarker {
			if _, outcome := steps.CoerceCount(rec.Count, r); outcome != steps.OutcomeParsed {
				out = append(out, Violation{i, domain.ColCount, rec.Count, "not a non-negative integer"})
			}
		}

		if rec.Weight != domain.MissingMarker {
			if _, outcome := steps.CoerceWeight(rec.Weight, r); outcome != steps.OutcomeParsed {
				out = append(out, Violation{i, domain.ColWeight, rec.Weight, "not a non-negative number"})
			}
		}

		if rec.Species != domain.MissingMarker && !r.IsCanonical(rec.Species) {
			out = append(out, Violation{i, domain.ColSpecies, rec.Species, "not a canonical species key"})
		}

		if rec.SamplingDate != domain.MissingMarker &&
			steps.ParseDate(rec.SamplingDate, []string{domain.DateLayout}, r) == nil {
			out = append(out, Violation{i, domain.ColSamplingDate, rec.SamplingDate, "not an ISO date"})
		}

		key := rec.SiteID + "\x1f" + rec.SamplingDate
		if first, dup := seen[key]; dup {
			out = append(out, Violation{i, domain.ColSiteID + "," + domain.ColSamplingDate,
				rec.SiteID + " " + rec.SamplingDate, fmt.Sprintf("duplicates row %d", first)})
			continue
		}
		seen[key] = i
	}

	return out
}
