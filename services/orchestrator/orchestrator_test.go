// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/salesagent/services/analysis"
	"github.com/AleutianAI/salesagent/services/orchestrator/datatypes"
)

// fakeRetriever classifies with the real keyword rules but answers
// Retrieve from canned fields.
type fakeRetriever struct {
	ok        bool
	message   string
	localPath string

	gotKind  datatypes.SourceKind
	gotInput string
}

func (f *fakeRetriever) Detect(input string) datatypes.SourceKind {
	lower := strings.ToLower(input)
	switch {
	case strings.Contains(lower, "drive") || strings.Contains(lower, "google"):
		return datatypes.SourceDrive
	case strings.Contains(lower, "s3"):
		return datatypes.SourceS3
	case strings.Contains(lower, "local") || strings.Contains(lower, "file"):
		return datatypes.SourceLocal
	}
	return datatypes.SourceUnset
}

func (f *fakeRetriever) PromptForLocation() string {
	return "Where is your data?"
}

func (f *fakeRetriever) PromptForPath(kind datatypes.SourceKind) string {
	return "Please provide the path."
}

func (f *fakeRetriever) Retrieve(_ context.Context, kind datatypes.SourceKind, input string) (bool, string, string) {
	f.gotKind = kind
	f.gotInput = input
	return f.ok, f.message, f.localPath
}

// fakeEngine records load/execute calls and answers from canned results.
type fakeEngine struct {
	loadSummary string
	loadErr     error
	result      *analysis.Result
	execErr     error

	loadedPath string
	questions  []string
}

func (f *fakeEngine) Load(path string) (string, error) {
	if f.loadErr != nil {
		return "", f.loadErr
	}
	f.loadedPath = path
	return f.loadSummary, nil
}

func (f *fakeEngine) Execute(_ context.Context, question string) (*analysis.Result, error) {
	f.questions = append(f.questions, question)
	if f.execErr != nil {
		return nil, f.execErr
	}
	return f.result, nil
}

func happyPathFakes() (*fakeRetriever, *fakeEngine) {
	retriever := &fakeRetriever{
		ok:        true,
		message:   "Found your file at /data/sales.csv.",
		localPath: "/data/sales.csv",
	}
	engine := &fakeEngine{
		loadSummary: "Loaded sales.csv: 6 rows, 3 columns.",
		result:      &analysis.Result{Formatted: "11,000.00"},
	}
	return retriever, engine
}

func TestStartDataQuery(t *testing.T) {
	retriever, engine := happyPathFakes()
	o := New(retriever, engine)

	reply := o.Start(context.Background(), "Show me this quarter's sales (Nov, Dec, Jan)")

	if reply != "Where is your data?" {
		t.Errorf("reply = %q, want the location prompt", reply)
	}
	if got := o.Session().Step; got != datatypes.StepNeedDataSource {
		t.Errorf("step = %q, want need_data_source", got)
	}
	if o.Session().OriginalQuery != "Show me this quarter's sales (Nov, Dec, Jan)" {
		t.Errorf("OriginalQuery = %q", o.Session().OriginalQuery)
	}
}

func TestStartNonDataQuery(t *testing.T) {
	retriever, engine := happyPathFakes()
	o := New(retriever, engine)

	reply := o.Start(context.Background(), "how are you today")

	if !strings.Contains(reply, "sales data analysis agent") {
		t.Errorf("reply = %q, want clarification", reply)
	}
	if got := o.Session().Step; got != datatypes.StepInitial {
		t.Errorf("step = %q, want initial", got)
	}
}

func TestKeywordClassification(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"show me the revenue", true},
		{"analyze my numbers", true},
		{"calculate totals per month", true},
		{"what's the weather", false},
		{"SALES report please", true},
	}

	for _, tt := range tests {
		if got := needsData(tt.query); got != tt.want {
			t.Errorf("needsData(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestSourceClassificationTurn(t *testing.T) {
	retriever, engine := happyPathFakes()
	o := New(retriever, engine)
	o.Start(context.Background(), "show me sales")

	reply := o.Respond(context.Background(), "it's a local file")

	if reply != "Please provide the path." {
		t.Errorf("reply = %q, want the path prompt", reply)
	}
	if got := o.Session().Step; got != datatypes.StepNeedDataPath {
		t.Errorf("step = %q, want need_data_path", got)
	}
	if got := o.Session().DataSource; got != datatypes.SourceLocal {
		t.Errorf("source = %q, want local", got)
	}
}

func TestSourceUnclassifiableReprompts(t *testing.T) {
	retriever, engine := happyPathFakes()
	o := New(retriever, engine)
	o.Start(context.Background(), "show me sales")

	reply := o.Respond(context.Background(), "hmm not sure")

	if !strings.Contains(reply, "didn't catch") {
		t.Errorf("reply = %q, want the re-prompt", reply)
	}
	if got := o.Session().Step; got != datatypes.StepNeedDataSource {
		t.Errorf("step = %q, want need_data_source (unchanged)", got)
	}
}

func TestEndToEndLocalFile(t *testing.T) {
	retriever, engine := happyPathFakes()
	engine.result = &analysis.Result{Formatted: "11,000.00", ArtifactPath: "temp_downloads/chart.png"}
	o := New(retriever, engine)

	o.Start(context.Background(), "Show me this quarter's sales (Nov, Dec, Jan)")
	o.Respond(context.Background(), "local")
	reply := o.Respond(context.Background(), "/data/sales.csv")

	// Retrieval confirmation, load summary, and the auto-run analysis all
	// arrive in one reply.
	for _, want := range []string{"Found your file", "Loaded sales.csv", "11,000.00"} {
		if !strings.Contains(reply, want) {
			t.Errorf("reply missing %q:\n%s", want, reply)
		}
	}

	s := o.Session()
	if s.Step != datatypes.StepReadyForAnalysis {
		t.Errorf("step = %q, want ready_for_analysis", s.Step)
	}
	if !s.DataLoaded || !s.AnalysisComplete {
		t.Errorf("flags = loaded %v, analyzed %v, want both true", s.DataLoaded, s.AnalysisComplete)
	}
	if !s.Complete() {
		t.Error("Complete() = false, want true (artifact was produced)")
	}

	// The original query was re-run verbatim.
	if len(engine.questions) != 1 || engine.questions[0] != "Show me this quarter's sales (Nov, Dec, Jan)" {
		t.Errorf("auto-run questions = %v", engine.questions)
	}
}

func TestRetrievalFailureKeepsState(t *testing.T) {
	retriever, engine := happyPathFakes()
	retriever.ok = false
	retriever.message = "Couldn't download the file from Google Drive: not found"
	o := New(retriever, engine)

	o.Start(context.Background(), "show me sales")
	o.Respond(context.Background(), "google drive")
	reply := o.Respond(context.Background(), "https://drive.google.com/file/d/bad/view")

	if reply != retriever.message {
		t.Errorf("reply = %q, want the failure message verbatim", reply)
	}
	if got := o.Session().Step; got != datatypes.StepNeedDataPath {
		t.Errorf("step = %q, want need_data_path (unchanged)", got)
	}

	// A corrected path on the next turn still succeeds.
	retriever.ok = true
	retriever.message = "Downloaded."
	retriever.localPath = "/data/sales.csv"

	reply = o.Respond(context.Background(), "https://drive.google.com/file/d/good/view")
	if !strings.Contains(reply, "11,000.00") {
		t.Errorf("recovery reply = %q", reply)
	}
	if got := o.Session().Step; got != datatypes.StepReadyForAnalysis {
		t.Errorf("step = %q, want ready_for_analysis", got)
	}
}

func TestCompoundDriveLinkCollapsesTurns(t *testing.T) {
	retriever, engine := happyPathFakes()
	o := New(retriever, engine)

	o.Start(context.Background(), "show me sales")
	link := "https://drive.google.com/file/d/abc123/view"
	reply := o.Respond(context.Background(), link)

	// Source detection and retrieval happen in the same turn.
	if retriever.gotInput != link {
		t.Errorf("Retrieve() input = %q, want the link", retriever.gotInput)
	}
	if retriever.gotKind != datatypes.SourceDrive {
		t.Errorf("Retrieve() kind = %q, want drive", retriever.gotKind)
	}
	if got := o.Session().Step; got != datatypes.StepReadyForAnalysis {
		t.Errorf("step = %q, want ready_for_analysis", got)
	}
	if !strings.Contains(reply, "11,000.00") {
		t.Errorf("reply = %q, want the analysis result", reply)
	}
}

func TestLoadFailureKeepsState(t *testing.T) {
	retriever, engine := happyPathFakes()
	engine.loadErr = errors.New("dataset: unsupported file format: .pdf")
	o := New(retriever, engine)

	o.Start(context.Background(), "show me sales")
	o.Respond(context.Background(), "local")
	reply := o.Respond(context.Background(), "/data/report.pdf")

	if reply != engine.loadErr.Error() {
		t.Errorf("reply = %q, want the load error verbatim", reply)
	}
	if got := o.Session().Step; got != datatypes.StepNeedDataPath {
		t.Errorf("step = %q, want need_data_path (unchanged)", got)
	}
	if o.Session().DataLoaded {
		t.Error("DataLoaded = true after failed load")
	}
}

func TestAnalysisTurn(t *testing.T) {
	retriever, engine := happyPathFakes()
	o := New(retriever, engine)

	o.Start(context.Background(), "show me sales")
	o.Respond(context.Background(), "local")
	o.Respond(context.Background(), "/data/sales.csv")

	engine.result = &analysis.Result{Formatted: "1,950.00"}
	reply := o.Respond(context.Background(), "what is the average sale")

	if reply != "1,950.00" {
		t.Errorf("reply = %q, want the formatted result", reply)
	}
	if engine.questions[len(engine.questions)-1] != "what is the average sale" {
		t.Errorf("question forwarded = %q", engine.questions[len(engine.questions)-1])
	}
}

func TestAnalysisFailureSurfacedVerbatim(t *testing.T) {
	retriever, engine := happyPathFakes()
	o := New(retriever, engine)

	o.Start(context.Background(), "show me sales")
	o.Respond(context.Background(), "local")
	o.Respond(context.Background(), "/data/sales.csv")

	engine.execErr = errors.New("sandbox: step 1 (aggregate): column \"profit\" not found")
	reply := o.Respond(context.Background(), "sum the profit")

	if reply != engine.execErr.Error() {
		t.Errorf("reply = %q, want the error verbatim", reply)
	}
	if got := o.Session().Step; got != datatypes.StepReadyForAnalysis {
		t.Errorf("step = %q, want ready_for_analysis (unchanged)", got)
	}
}

func TestRespondBeforeStart(t *testing.T) {
	retriever, engine := happyPathFakes()
	o := New(retriever, engine)

	reply := o.Respond(context.Background(), "analyze my data")

	if reply != "Where is your data?" {
		t.Errorf("reply = %q, want the location prompt", reply)
	}
	if o.Session() == nil {
		t.Fatal("Session() = nil after Respond")
	}
}

func TestTranscriptRecorded(t *testing.T) {
	retriever, engine := happyPathFakes()
	o := New(retriever, engine)

	o.Start(context.Background(), "show me sales")
	o.Respond(context.Background(), "local")

	msgs := o.Session().Messages
	if len(msgs) != 4 {
		t.Fatalf("transcript has %d messages, want 4", len(msgs))
	}
	wantRoles := []string{"user", "assistant", "user", "assistant"}
	for i, want := range wantRoles {
		if msgs[i].Role != want {
			t.Errorf("message %d role = %q, want %q", i, msgs[i].Role, want)
		}
	}
}
