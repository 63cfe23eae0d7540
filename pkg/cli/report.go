package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

var (
	titleColor   = color.New(color.Bold)
	failureColor = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	mutedColor   = color.New(color.Faint)
)

func writerOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

// printReport renders a report for the terminal, failures first
func printReport(w io.Writer, r *model.Report) error {
	w = writerOrStdout(w)
	var b strings.Builder

	titleColor.Fprintln(&b, r.Title)

	counts := make([]string, 0, len(r.Counts))
	for _, c := range r.Counts {
		counts = append(counts, fmt.Sprintf("%s: %d", c.Label, c.Value))
	}
	if len(counts) > 0 {
		fmt.Fprintln(&b, strings.Join(counts, "  "))
	}

	if len(r.Failures) == 0 && len(r.Successes) == 0 {
		mutedColor.Fprintln(&b, "No pairs were submitted.")
	}

	for _, item := range r.Failures {
		failureColor.Fprintf(&b, "✗ line %d  %s", item.LineNumber, item.Label)
		if item.Detail != "" {
			fmt.Fprintf(&b, "  %s", item.Detail)
		}
		fmt.Fprintln(&b)
	}
	for _, item := range r.Successes {
		successColor.Fprintf(&b, "✓ line %d  %s", item.LineNumber, item.Label)
		if item.Detail != "" {
			mutedColor.Fprintf(&b, "  %s", item.Detail)
		}
		fmt.Fprintln(&b)
	}

	if r.Footer != "" {
		mutedColor.Fprintln(&b, r.Footer)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return goerr.Wrap(err, "failed to write report")
	}
	return nil
}

func printUsers(w io.Writer, users []*model.User) error {
	w = writerOrStdout(w)
	var b strings.Builder

	if len(users) == 0 {
		mutedColor.Fprintln(&b, "No users found.")
	}
	for _, u := range users {
		fmt.Fprintf(&b, "%s  %s", u.ID, titleColor.Sprint(u.Handle))
		if u.RealName != "" {
			fmt.Fprintf(&b, "  %s", u.RealName)
		}
		if u.Email != "" {
			mutedColor.Fprintf(&b, "  %s", u.Email)
		}
		fmt.Fprintln(&b)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return goerr.Wrap(err, "failed to write users")
	}
	return nil
}
