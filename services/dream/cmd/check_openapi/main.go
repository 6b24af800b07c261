package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"dreamweaver/services/dream/internal/server"
	"gopkg.in/yaml.v3"
)

const defaultDocPath = "api/openapi.yaml"

type openAPIDoc struct {
	Paths      map[string]map[string]yaml.Node `yaml:"paths"`
	Components struct {
		Schemas map[string]schema `yaml:"schemas"`
	} `yaml:"components"`
}

type schema struct {
	Type       string            `yaml:"type"`
	Properties map[string]schema `yaml:"properties"`
	Required   []string          `yaml:"required"`
}

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

func main() {
	if len(os.Args) > 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [openapi.yaml]\n", os.Args[0])
		os.Exit(2)
	}
	path := defaultDocPath
	if len(os.Args) == 2 {
		path = os.Args[1]
	}

	doc, err := loadDoc(path)
	if err != nil {
		exitErr(err)
	}
	errResp, err := getSchema(doc, "ErrorResponse")
	if err != nil {
		exitErr(err)
	}
	if err := validateErrorResponse(errResp); err != nil {
		exitErr(err)
	}
	if problems := compareRoutes(server.Routes, documentedRoutes(doc)); len(problems) > 0 {
		exitErr(errors.New(strings.Join(problems, "\n")))
	}

	fmt.Println("OpenAPI consistency check passed.")
}

func loadDoc(path string) (openAPIDoc, error) {
	var doc openAPIDoc
	raw, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func getSchema(doc openAPIDoc, name string) (schema, error) {
	if doc.Components.Schemas == nil {
		return schema{}, errors.New("components.schemas missing")
	}
	s, ok := doc.Components.Schemas[name]
	if !ok {
		return schema{}, fmt.Errorf("schema %q missing", name)
	}
	return s, nil
}

// validateErrorResponse checks the {"error": "..."} body every handler writes.
func validateErrorResponse(s schema) error {
	if s.Type != "object" {
		return errors.New("ErrorResponse must be object")
	}
	required := false
	for _, field := range s.Required {
		if field == "error" {
			required = true
		}
	}
	if !required {
		return errors.New(`ErrorResponse.required must include "error"`)
	}
	if prop, ok := s.Properties["error"]; !ok || prop.Type != "string" {
		return errors.New("ErrorResponse.error must be string")
	}
	return nil
}

// documentedRoutes maps each documented path to its upper-case methods.
func documentedRoutes(doc openAPIDoc) map[string][]string {
	out := make(map[string][]string, len(doc.Paths))
	for path, item := range doc.Paths {
		var methods []string
		for key := range item {
			if httpMethods[strings.ToLower(key)] {
				methods = append(methods, strings.ToUpper(key))
			}
		}
		sort.Strings(methods)
		out[path] = methods
	}
	return out
}

// compareRoutes reports every served route or method missing from the
// document and every documented one the server does not serve.
func compareRoutes(served []server.Route, documented map[string][]string) []string {
	var problems []string
	seen := make(map[string]bool, len(served))
	for _, route := range served {
		seen[route.Path] = true
		methods, ok := documented[route.Path]
		if !ok {
			problems = append(problems, fmt.Sprintf("path %s is served but not documented", route.Path))
			continue
		}
		want := append([]string(nil), route.Methods...)
		sort.Strings(want)
		if strings.Join(want, ",") != strings.Join(methods, ",") {
			problems = append(problems, fmt.Sprintf("path %s methods mismatch: served %v, documented %v", route.Path, want, methods))
		}
	}
	for path := range documented {
		if !seen[path] {
			problems = append(problems, fmt.Sprintf("path %s is documented but not served", path))
		}
	}
	sort.Strings(problems)
	return problems
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "OpenAPI consistency check failed: %v\n", err)
	os.Exit(1)
}
