package parser

import "testing"

func TestParseErrorDiagnostic(t *testing.T) {
	input := `
╷
│ Error: Reference to undeclared resource
│
│   on main.tf line 12, in resource "aws_instance" "web":
│   12:   subnet_id = aws_subnet.private.id
│
│ A managed resource "aws_subnet" "private" has not been declared in the
│ root module.
╵
`

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}

	if len(plan.Resources) != 0 {
		t.Fatalf("Expected no resources, got %d: %+v", len(plan.Resources), plan.Resources)
	}
	if len(plan.Errors) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d", len(plan.Errors))
	}

	d := plan.Errors[0]
	if d.Severity != "error" {
		t.Errorf("Expected error severity, got %q", d.Severity)
	}
	if d.Summary != "Reference to undeclared resource" {
		t.Errorf("Unexpected summary: %q", d.Summary)
	}
	if d.File != "main.tf" || d.Line != 12 {
		t.Errorf("Expected location main.tf:12, got %s:%d", d.File, d.Line)
	}
	want := "12:   subnet_id = aws_subnet.private.id\n" +
		"A managed resource \"aws_subnet\" \"private\" has not been declared in the\n" +
		"root module."
	if d.Detail != want {
		t.Errorf("Unexpected detail:\ngot:  %q\nwant: %q", d.Detail, want)
	}
	if !plan.HasErrors() {
		t.Error("Expected HasErrors to be true")
	}
}

func TestParseWarningDiagnostic(t *testing.T) {
	input := `
╷
│ Warning: Deprecated attribute
│
│   on vpc.tf line 3:
│    3:   enable_classiclink = false
│
│ This attribute is deprecated and will be removed in a future version.
╵

Plan: 0 to add, 0 to change, 0 to destroy.
`

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}

	if len(plan.Errors) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d", len(plan.Errors))
	}
	d := plan.Errors[0]
	if d.Severity != "warning" || d.Summary != "Deprecated attribute" {
		t.Errorf("Unexpected diagnostic: %+v", d)
	}
	if d.File != "vpc.tf" || d.Line != 3 {
		t.Errorf("Expected location vpc.tf:3, got %s:%d", d.File, d.Line)
	}
	if plan.HasErrors() {
		t.Error("Expected HasErrors to be false for a warning-only plan")
	}
}

// A diagnostic quoting configuration source must never leak into the change
// model, even when the quoted line ends in an opening brace.
func TestParseDiagnosticDoesNotFabricateResource(t *testing.T) {
	input := `
╷
│ Error: Invalid resource type
│
│   on main.tf line 8:
│    8: resource "aws_foo" "bar" {
│
│ The provider hashicorp/aws does not support resource type "aws_foo".
╵

  # aws_instance.web will be created
  + resource "aws_instance" "web" {
      + ami = "ami-12345678"
    }

Plan: 1 to add, 0 to change, 0 to destroy.
`

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}

	if len(plan.Resources) != 1 {
		t.Fatalf("Expected exactly 1 resource, got %d: %+v", len(plan.Resources), plan.Resources)
	}
	r := plan.Resources[0]
	if r.Address.String() != "aws_instance.web" || r.Change != ChangeCreate {
		t.Errorf("Unexpected resource: %+v", r)
	}

	if len(plan.Errors) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d", len(plan.Errors))
	}
	if plan.Errors[0].Summary != "Invalid resource type" {
		t.Errorf("Unexpected summary: %q", plan.Errors[0].Summary)
	}
}

func TestParseDiagnosticWithoutHeadline(t *testing.T) {
	input := `
╷
│ something went wrong deep in the provider
╵
`

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}

	if len(plan.Errors) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d", len(plan.Errors))
	}
	d := plan.Errors[0]
	if d.Severity != "error" || d.Summary != "Terraform Error" {
		t.Errorf("Unexpected fallback diagnostic: %+v", d)
	}
	if d.Detail != "something went wrong deep in the provider" {
		t.Errorf("Unexpected detail: %q", d.Detail)
	}
}

func TestParseUnterminatedDiagnostic(t *testing.T) {
	input := `
╷
│ Error: Plugin crashed
│
│ The plugin exited unexpectedly`

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}

	if len(plan.Errors) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d", len(plan.Errors))
	}
	if plan.Errors[0].Summary != "Plugin crashed" {
		t.Errorf("Unexpected summary: %q", plan.Errors[0].Summary)
	}
}

// A block opener at the root that neither follows a change header nor looks
// like a resource or data source is noise, not a change.
func TestParseRootBlockWithoutHeaderIgnored(t *testing.T) {
	input := `
locals {
  name = "example"
}

  # aws_instance.web will be created
  + resource "aws_instance" "web" {
      + ami = "ami-12345678"
    }

Plan: 1 to add, 0 to change, 0 to destroy.
`

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}

	if len(plan.Resources) != 1 {
		t.Fatalf("Expected exactly 1 resource, got %d: %+v", len(plan.Resources), plan.Resources)
	}
	if plan.Resources[0].Address.String() != "aws_instance.web" {
		t.Errorf("Unexpected resource: %+v", plan.Resources[0])
	}
}
