package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"leadprep/config"
	"leadprep/models"
	"leadprep/storage"
	"leadprep/utils"
)

const (
	chainColumn     = "chain_info.chain"
	processedSuffix = "_processed"
	unknownValue    = "unknown"
)

// placeholders are the cell texts a spreadsheet export uses for "no value".
// They are read as absent so they behave exactly like an empty cell.
var placeholders = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// slotColumns names the source columns of one contact slot.
type slotColumns struct {
	email, phone, fullName, firstName, lastName string
}

var contactSlots = func() []slotColumns {
	slots := make([]slotColumns, 3)
	for i := range slots {
		p := "email_" + strconv.Itoa(i+1)
		slots[i] = slotColumns{
			email:     p,
			phone:     p + "_phone",
			fullName:  p + "_full_name",
			firstName: p + "_first_name",
			lastName:  p + "_last_name",
		}
	}
	return slots
}()

// Reshaper explodes lead exports into one cleaned row per contact email.
type Reshaper struct {
	store   storage.Store
	blocked []string
	logger  *utils.Logger
}

// NewReshaper creates a Reshaper. A nil rules value uses the built-in rules.
func NewReshaper(store storage.Store, rules *config.Rules, logger *utils.Logger) *Reshaper {
	if rules == nil {
		rules = config.DefaultRules()
	}
	blocked := make([]string, len(rules.BlockedKeywords))
	for i, kw := range rules.BlockedKeywords {
		blocked[i] = strings.ToLower(kw)
	}
	return &Reshaper{store: store, blocked: blocked, logger: logger}
}

// ProcessedKey derives the cleaned file name: "leads.csv" → "leads_processed.csv".
func ProcessedKey(sourceKey string) string {
	ext := filepath.Ext(sourceKey)
	return strings.TrimSuffix(sourceKey, ext) + processedSuffix + ext
}

// IsProcessedKey reports whether key names a cleaned file.
func IsProcessedKey(key string) bool {
	ext := filepath.Ext(key)
	return strings.HasSuffix(strings.TrimSuffix(key, ext), processedSuffix)
}

// Process reads sourceKey, reshapes it and writes the result next to it.
// Nothing is written when the source cannot be parsed.
func (r *Reshaper) Process(ctx context.Context, sourceKey string) (*models.ProcessReport, error) {
	start := time.Now()

	src, err := r.store.Read(ctx, sourceKey)
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}

	out, report, err := r.Reshape(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("reshape %q: %w", sourceKey, err)
	}

	report.SourceKey = sourceKey
	report.OutputKey = ProcessedKey(sourceKey)
	if err := r.store.Write(ctx, report.OutputKey, out); err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	report.Duration = time.Since(start)

	r.logger.Info("[reshape] %s: %d source rows → %d contacts → %d written to %s",
		sourceKey, report.SourceRows, report.Exploded, report.Written, report.OutputKey)
	for reason, n := range report.Dropped {
		r.logger.Debug("[reshape] dropped %d rows: %s", n, reason)
	}
	return report, nil
}

// Reshape turns a source table into the cleaned contact table.
func (r *Reshaper) Reshape(ctx context.Context, src *models.Table) (*models.Table, *models.ProcessReport, error) {
	idx := src.Index()
	cell := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return absentIfPlaceholder(rec[i])
	}
	_, hasChain := idx[chainColumn]

	report := &models.ProcessReport{
		SourceRows: len(src.Records),
		Dropped:    make(map[models.DropReason]int),
	}
	out := &models.Table{
		Header:  append([]string(nil), models.ContactHeader...),
		Records: make([][]string, 0, len(src.Records)),
	}

	for _, rec := range src.Records {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		if hasChain && strings.ToUpper(cell(rec, chainColumn)) == "TRUE" {
			report.Dropped[models.DropChain]++
			continue
		}

		company := models.Company{
			LinkedIn: cell(rec, "LinkedIn"),
			Name:     cell(rec, "Name"),
			Website:  cell(rec, "Website"),
			Type:     cell(rec, "Type"),
			City:     cell(rec, "City"),
			Zip:      cell(rec, "Zip"),
			State:    cell(rec, "State"),
		}

		for _, slot := range contactSlots {
			email := cell(rec, slot.email)
			if email == "" {
				continue
			}
			report.Exploded++

			row := models.ContactRow{
				Company: company,
				Contact: models.Contact{
					Email:     email,
					Phone:     cell(rec, slot.phone),
					FullName:  cell(rec, slot.fullName),
					FirstName: normalizeFirstName(cell(rec, slot.firstName)),
					LastName:  cell(rec, slot.lastName),
				},
			}

			if reason, drop := r.dropReason(row); drop {
				report.Dropped[reason]++
				r.logger.Debug("[reshape] dropping %s (%s): %s", row.Email, row.Name, reason)
				continue
			}
			out.Records = append(out.Records, row.Record())
		}
	}

	report.Written = len(out.Records)
	return out, report, nil
}

// dropReason applies the row filters in order and returns the first that matches.
func (r *Reshaper) dropReason(row models.ContactRow) (models.DropReason, bool) {
	if strings.EqualFold(strings.TrimSpace(row.Name), unknownValue) {
		return models.DropUnknownCompany, true
	}
	if strings.EqualFold(row.FirstName, unknownValue) {
		return models.DropUnknownFirst, true
	}
	if strings.TrimSpace(row.Email) == "" {
		return models.DropEmptyEmail, true
	}
	if r.isBlocked(row.Email) {
		return models.DropBlockedEmail, true
	}
	return "", false
}

// isBlocked reports whether email contains a blocked keyword anywhere.
func (r *Reshaper) isBlocked(email string) bool {
	lower := strings.ToLower(email)
	for _, kw := range r.blocked {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// normalizeFirstName trims, drops one trailing comma and every '?', and
// blanks placeholders and single letters.
func normalizeFirstName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ",")
	s = strings.ReplaceAll(s, "?", "")
	s = absentIfPlaceholder(s)
	if utf8.RuneCountInString(s) == 1 {
		return ""
	}
	return s
}

func absentIfPlaceholder(s string) string {
	if _, ok := placeholders[s]; ok {
		return ""
	}
	return s
}
