package web

// handlers_common.go holds response types and helpers shared by handlers.

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/glee/internal/core"
	"github.com/JonMunkholm/glee/internal/export"
)

// maxIssues caps the issues returned inline; the rest are counted only.
const maxIssues = 500

// sessionResponse is the JSON view of an import session.
type sessionResponse struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	Phase     core.Phase         `json:"phase"`
	FileName  string             `json:"file_name,omitempty"`
	Actor     string             `json:"actor"`
	Summary   core.Summary       `json:"summary"`
	Malformed int                `json:"malformed"`
	Plan      *planSummary       `json:"plan,omitempty"`
	Issues    []core.Issue       `json:"issues"`
	Truncated bool               `json:"issues_truncated,omitempty"`
	Result    *core.CommitResult `json:"result,omitempty"`
}

type planSummary struct {
	Admitted   int `json:"admitted"`
	Rejected   int `json:"rejected"`
	Superseded int `json:"superseded"`
}

func newSessionResponse(sess *core.Session) sessionResponse {
	resp := sessionResponse{
		ID:        sess.ID,
		Kind:      sess.Kind,
		Phase:     sess.Phase,
		FileName:  sess.FileName,
		Actor:     sess.Actor.ID,
		Summary:   sess.Summary(),
		Malformed: sess.Malformed,
		Issues:    core.Issues(sess.Records),
		Result:    sess.Result,
	}
	if resp.Issues == nil {
		resp.Issues = []core.Issue{}
	}
	if len(resp.Issues) > maxIssues {
		resp.Issues = resp.Issues[:maxIssues]
		resp.Truncated = true
	}
	if len(sess.Records) > 0 {
		plan := core.NewPlan(sess.Records)
		resp.Plan = &planSummary{
			Admitted:   len(plan.Admitted),
			Rejected:   len(plan.Rejected),
			Superseded: len(plan.SupersededBy),
		}
	}
	return resp
}

// wantsXLSX reports whether the client asked for a workbook via ?format=xlsx.
func wantsXLSX(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "xlsx")
}

// writeTable sends header and rows as CSV or XLSX with a download filename.
func writeTable(w http.ResponseWriter, r *http.Request, name string, header []string, rows [][]string) error {
	if wantsXLSX(r) {
		w.Header().Set("Content-Type", export.ContentTypeXLSX)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xlsx"))
		return export.WriteXLSX(w, name, header, rows)
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))
	return writeCSV(w, header, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
