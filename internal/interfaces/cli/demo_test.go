package cli

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/turtacn/ClinFHIR-Bridge/internal/application/conversion"
	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/clinical"
	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/fhir"
	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/logging"
)

func execDemo(t *testing.T, svc conversion.Service, args []string) (string, error) {
	t.Helper()

	cmd := NewDemoCmd(svc, logging.NewNopLogger())

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestDemoExamples_Defined(t *testing.T) {
	if len(demoExamples) != 4 {
		t.Fatalf("expected 4 example notes, got %d", len(demoExamples))
	}

	wantNames := []string{
		"Type 2 Diabetes",
		"Hypertension & Cardiovascular",
		"Post-Surgery Follow-up",
		"Respiratory & Pain Management",
	}
	for i, want := range wantNames {
		if demoExamples[i].Name != want {
			t.Errorf("example %d: expected name %q, got %q", i, want, demoExamples[i].Name)
		}
	}

	// Every example must clear the API's minimum note length.
	for _, ex := range demoExamples {
		if len(ex.Note) < 10 {
			t.Errorf("example %q note is too short", ex.Name)
		}
	}
}

func TestNewDemoCmd_Structure(t *testing.T) {
	cmd := NewDemoCmd(&stubConvertService{}, nil)
	if cmd.Use != "demo" {
		t.Errorf("expected Use='demo', got %q", cmd.Use)
	}

	exampleFlag := cmd.Flags().Lookup("example")
	if exampleFlag == nil {
		t.Fatal("example flag should exist")
	}
	if exampleFlag.Shorthand != "e" {
		t.Errorf("example shorthand should be 'e', got %q", exampleFlag.Shorthand)
	}
	if cmd.Flags().Lookup("list") == nil {
		t.Error("list flag should exist")
	}
}

func TestDemoCmd_List(t *testing.T) {
	svc := &stubConvertService{}

	out, err := execDemo(t, svc, []string{"--list"})
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}

	for _, ex := range demoExamples {
		if !strings.Contains(out, ex.Name) {
			t.Errorf("list output missing %q: %q", ex.Name, out)
		}
	}
	if svc.convertCalls != 0 {
		t.Errorf("listing should not run a conversion, got %d calls", svc.convertCalls)
	}
}

func TestDemoCmd_DefaultExample(t *testing.T) {
	svc := &stubConvertService{entities: []clinical.Entity{
		{Text: "type 2 diabetes mellitus", Type: clinical.CategoryCondition, Start: 33, End: 57, Confidence: 0.7},
	}}

	out, err := execDemo(t, svc, nil)
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}

	if svc.lastInput.ClinicalNote != demoExamples[0].Note {
		t.Error("default run should convert the first example note")
	}
	if !strings.Contains(out, "Example: Type 2 Diabetes") {
		t.Errorf("output missing example header: %q", out)
	}
	if !strings.Contains(out, "Summary: 1 entities") {
		t.Errorf("output missing summary line: %q", out)
	}
}

func TestDemoCmd_SelectExample_CaseInsensitive(t *testing.T) {
	svc := &stubConvertService{}

	_, err := execDemo(t, svc, []string{"--example", "post-surgery follow-up"})
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if svc.lastInput.ClinicalNote != demoExamples[2].Note {
		t.Error("expected the Post-Surgery Follow-up note to be converted")
	}
}

func TestDemoCmd_UnknownExample(t *testing.T) {
	svc := &stubConvertService{}

	_, err := execDemo(t, svc, []string{"--example", "does not exist"})
	if err == nil {
		t.Fatal("expected error for unknown example")
	}
	if !strings.Contains(err.Error(), "unknown example") {
		t.Errorf("unexpected error message: %v", err)
	}
	if !strings.Contains(err.Error(), "Type 2 Diabetes") {
		t.Errorf("error should list available examples: %v", err)
	}
}

func TestDemoCmd_NoEntities(t *testing.T) {
	svc := &stubConvertService{result: &conversion.ConvertResult{
		Status:   conversion.StatusSuccess,
		Entities: []clinical.Entity{},
		Warnings: []string{conversion.WarningNoEntities},
	}}

	out, err := execDemo(t, svc, nil)
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if !strings.Contains(out, "No entities detected in this note.") {
		t.Errorf("output should report empty extraction: %q", out)
	}
	if !strings.Contains(out, "Warning: "+conversion.WarningNoEntities) {
		t.Errorf("output should include the warning: %q", out)
	}
}

func TestDemoCmd_SummaryCountsResources(t *testing.T) {
	svc := &stubConvertService{result: &conversion.ConvertResult{
		Status: conversion.StatusSuccess,
		Entities: []clinical.Entity{
			{Text: "asthma", Type: clinical.CategoryCondition, Start: 55, End: 61, Confidence: 0.7},
		},
		Bundle: &fhir.Bundle{
			ResourceType: "Bundle",
			Type:         "collection",
			Entry:        make([]fhir.BundleEntry, 2),
		},
		Warnings: []string{},
	}}

	out, err := execDemo(t, svc, []string{"--example", "Respiratory & Pain Management"})
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if !strings.Contains(out, "2 FHIR resources") {
		t.Errorf("summary should count bundle entries: %q", out)
	}
	if !strings.Contains(out, "average confidence 70%") {
		t.Errorf("summary should report average confidence: %q", out)
	}
}

func TestSelectExample(t *testing.T) {
	ex, err := selectExample("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.Name != demoExamples[0].Name {
		t.Errorf("empty name should select the first example, got %q", ex.Name)
	}

	ex, err = selectExample("HYPERTENSION & CARDIOVASCULAR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.Name != "Hypertension & Cardiovascular" {
		t.Errorf("matching should ignore case, got %q", ex.Name)
	}

	if _, err = selectExample("bogus"); err == nil {
		t.Error("expected error for unknown name")
	}
}

func TestHighlightEntities_NoColor(t *testing.T) {
	note := "Patient has asthma today."
	entities := []clinical.Entity{
		{Text: "asthma", Type: clinical.CategoryCondition, Start: 12, End: 18, Confidence: 0.7},
	}

	if got := highlightEntities(note, entities, true); got != note {
		t.Errorf("no-color highlighting should return the note unchanged, got %q", got)
	}
}

func TestHighlightEntities_PreservesText(t *testing.T) {
	note := "Takes metformin for type 2 diabetes daily."
	entities := []clinical.Entity{
		{Text: "metformin", Type: clinical.CategoryMedication, Start: 6, End: 15, Confidence: 0.7},
		{Text: "type 2 diabetes", Type: clinical.CategoryCondition, Start: 20, End: 35, Confidence: 0.7},
	}

	got := highlightEntities(note, entities, false)

	// Styling may wrap spans, but the note text itself must survive intact
	// and in order.
	for _, fragment := range []string{"Takes ", "metformin", " for ", "type 2 diabetes", " daily."} {
		if !strings.Contains(got, fragment) {
			t.Errorf("highlighted text missing fragment %q: %q", fragment, got)
		}
	}
	if idx1, idx2 := strings.Index(got, "metformin"), strings.Index(got, "type 2 diabetes"); idx1 > idx2 {
		t.Errorf("fragment order not preserved: %q", got)
	}
}

func TestHighlightEntities_SkipsInvalidSpans(t *testing.T) {
	note := "short"
	entities := []clinical.Entity{
		{Text: "x", Type: clinical.CategoryCondition, Start: 3, End: 99, Confidence: 0.7},
		{Text: "y", Type: clinical.CategoryCondition, Start: -1, End: 2, Confidence: 0.7},
	}

	if got := highlightEntities(note, entities, false); got != note {
		t.Errorf("invalid spans should be skipped, got %q", got)
	}
}

func TestRenderEntityGroups(t *testing.T) {
	entities := []clinical.Entity{
		{Text: "hypertension", Type: clinical.CategoryCondition, Start: 0, End: 12, Confidence: 0.7},
		{Text: "coronary artery disease", Type: clinical.CategoryCondition, Start: 20, End: 43, Confidence: 0.7},
		{Text: "lisinopril", Type: clinical.CategoryMedication, Start: 60, End: 70, Confidence: 0.7},
	}

	out := renderEntityGroups(entities, true)

	if !strings.Contains(out, "Entities (3):") {
		t.Errorf("missing total count: %q", out)
	}
	if !strings.Contains(out, "Conditions (2)") {
		t.Errorf("missing condition group: %q", out)
	}
	if !strings.Contains(out, "Medications (1)") {
		t.Errorf("missing medication group: %q", out)
	}
}

func TestConfidenceLabel_NoColor(t *testing.T) {
	cases := []struct {
		confidence float64
		want       string
	}{
		{0.85, "85%"},
		{0.7, "70%"},
		{0.55, "55%"},
	}
	for _, tc := range cases {
		if got := confidenceLabel(tc.confidence, true); got != tc.want {
			t.Errorf("confidenceLabel(%.2f) = %q, want %q", tc.confidence, got, tc.want)
		}
	}
}

func TestAverageConfidence(t *testing.T) {
	if got := averageConfidence(nil); got != 0 {
		t.Errorf("empty slice should average 0, got %g", got)
	}

	entities := []clinical.Entity{
		{Confidence: 0.6},
		{Confidence: 0.8},
	}
	if got := averageConfidence(entities); math.Abs(got-0.7) > 1e-9 {
		t.Errorf("expected average 0.7, got %g", got)
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("condition"); got != "Condition" {
		t.Errorf("expected 'Condition', got %q", got)
	}
	if got := titleCase(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
