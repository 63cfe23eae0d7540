package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
)

// Report titles
const (
	ValidationReportTitle = "Pair validation"
	ExecutionReportTitle  = "Pairing results"
)

func validationFailure(p model.ValidatedPair) model.ReportItem {
	return model.ReportItem{
		LineNumber: p.LineNumber,
		Label:      p.Label(),
		Detail:     p.ErrorMessage(),
	}
}

// FormatValidation summarizes validated pairs: invalid lines first, then the
// pairs that would be executed
func FormatValidation(pairs []model.ValidatedPair) *model.Report {
	report := &model.Report{Title: ValidationReportTitle}

	for _, p := range pairs {
		if !p.Valid {
			report.Failures = append(report.Failures, validationFailure(p))
			continue
		}
		report.Successes = append(report.Successes, model.ReportItem{
			LineNumber: p.LineNumber,
			Label:      p.Label(),
			Detail:     fmt.Sprintf("%s and %s", p.User1.Resolved.ID, p.User2.Resolved.ID),
		})
	}

	report.Counts = []model.ReportCount{
		{Label: "Lines", Value: len(pairs)},
		{Label: "Valid", Value: len(report.Successes)},
		{Label: "Invalid", Value: len(report.Failures)},
	}
	return report
}

// FormatExecution summarizes a batch run: failed pairs first, then the
// conversations that were opened
func FormatExecution(exec *model.ExecutionReport) *model.Report {
	report := &model.Report{
		Title: ExecutionReportTitle,
		Counts: []model.ReportCount{
			{Label: "Attempted", Value: exec.Total()},
			{Label: "Succeeded", Value: exec.SuccessCount},
			{Label: "Failed", Value: exec.FailureCount},
		},
		Footer: executionFooter(exec),
	}

	for _, o := range exec.Outcomes {
		item := model.ReportItem{
			LineNumber: o.LineNumber,
			Label:      o.PairLabel,
		}
		if o.Success {
			item.Detail = "intro sent"
			report.Successes = append(report.Successes, item)
		} else {
			item.Detail = o.ErrorMessage
			report.Failures = append(report.Failures, item)
		}
	}
	return report
}

// FormatRun merges validation and execution into the single report an
// operator receives after a run. Invalid lines and failed pairs are listed
// together by line number.
func FormatRun(pairs []model.ValidatedPair, exec *model.ExecutionReport) *model.Report {
	report := FormatExecution(exec)

	invalid := 0
	for _, p := range pairs {
		if !p.Valid {
			invalid++
			report.Failures = append(report.Failures, validationFailure(p))
		}
	}
	sort.SliceStable(report.Failures, func(i, j int) bool {
		return report.Failures[i].LineNumber < report.Failures[j].LineNumber
	})

	report.Counts = append([]model.ReportCount{
		{Label: "Lines", Value: len(pairs)},
		{Label: "Invalid", Value: invalid},
	}, report.Counts...)
	return report
}

func executionFooter(exec *model.ExecutionReport) string {
	if exec.RunID == "" {
		return ""
	}
	if exec.StartedAt.IsZero() || exec.FinishedAt.IsZero() {
		return fmt.Sprintf("run %s", exec.RunID)
	}
	return fmt.Sprintf("run %s in %s", exec.RunID, exec.FinishedAt.Sub(exec.StartedAt).Round(10*time.Millisecond))
}
