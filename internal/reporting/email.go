// Package reporting renders run alerts and publishes run artifacts.
package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/pkg/mailer"
)

const subjectPrefix = "[FINRAG ANALYTICAL LAYER]"

// CoverageMessage reports a merge decision with the coverage CSV attached
func CoverageMessage(s *contracts.RunSummary, csvName string, csv []byte) mailer.Message {
	status := s.Status()
	lines := []string{
		fmt.Sprintf("Analytical layer run for years %d-%d.", s.StartYear, s.EndYear),
		"",
		"Merge status: " + status,
		"Reason: " + s.Reason,
		"",
		"Previous missing derived (last2yrs): " + optionalInt(s.MissingPrev),
		"New missing derived      (last2yrs): " + optionalInt(s.MissingNew),
		"",
		fmt.Sprintf("Rows in new run: %d", s.RowsNew),
		fmt.Sprintf("Rows in previous final: %d", s.RowsPrev),
		"",
		"Run timestamp (UTC): " + s.RunTimestampUTC,
		"",
		"Coverage details by (cik, year) are attached as CSV.",
	}

	return mailer.Message{
		Subject:     fmt.Sprintf("%s %s for %d-%d", subjectPrefix, status, s.StartYear, s.EndYear),
		Body:        strings.Join(lines, "\n"),
		Attachments: []mailer.Attachment{{Name: csvName, Data: csv}},
	}
}

// SuccessMessage is sent when a whole run finished without a fatal error
func SuccessMessage(runTimestamp string) mailer.Message {
	return mailer.Message{
		Subject: subjectPrefix + " SUCCESS",
		Body: "FINRAG Analytical Layer run completed successfully.\n\n" +
			"Run timestamp (UTC): " + runTimestamp + "\n\n" +
			"All steps completed without errors.",
	}
}

// FailureMessage carries the full text of a fatal error
func FailureMessage(err error, runTimestamp string) mailer.Message {
	return mailer.Message{
		Subject: subjectPrefix + " FAILURE",
		Body: "FINRAG Analytical Layer run failed.\n\n" +
			"Error: " + err.Error() + "\n\n" +
			"Run timestamp (UTC): " + runTimestamp + "\n\n" +
			"Please check the run logs for details.",
	}
}

func optionalInt(n *int) string {
	if n == nil {
		return "n/a"
	}
	return strconv.Itoa(*n)
}
