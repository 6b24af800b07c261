package main

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"dreamweaver/services/dream/internal/server"
)

func TestRepositoryDocumentMatchesServer(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	doc, err := loadDoc(filepath.Join(filepath.Dir(file), "..", "..", "..", "..", defaultDocPath))
	if err != nil {
		t.Fatalf("load doc: %v", err)
	}
	errResp, err := getSchema(doc, "ErrorResponse")
	if err != nil {
		t.Fatalf("error schema: %v", err)
	}
	if err := validateErrorResponse(errResp); err != nil {
		t.Fatalf("validate error schema: %v", err)
	}
	if problems := compareRoutes(server.Routes, documentedRoutes(doc)); len(problems) > 0 {
		t.Fatalf("route drift:\n%s", strings.Join(problems, "\n"))
	}
}

func TestCompareRoutesReportsDrift(t *testing.T) {
	served := []server.Route{
		{Path: "/dreams", Methods: []string{"POST"}},
		{Path: "/narrations", Methods: []string{"POST"}},
	}
	documented := map[string][]string{
		"/dreams": {"GET", "POST"},
		"/legacy": {"GET"},
	}
	problems := compareRoutes(served, documented)
	if len(problems) != 3 {
		t.Fatalf("expected 3 problems, got %v", problems)
	}
}

func TestValidateErrorResponse(t *testing.T) {
	ok := schema{Type: "object", Required: []string{"error"}, Properties: map[string]schema{"error": {Type: "string"}}}
	if err := validateErrorResponse(ok); err != nil {
		t.Fatalf("valid schema rejected: %v", err)
	}
	missing := schema{Type: "object", Properties: map[string]schema{"error": {Type: "string"}}}
	if err := validateErrorResponse(missing); err == nil {
		t.Fatalf("expected error for missing required field")
	}
}
