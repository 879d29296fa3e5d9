package tui

import (
	"testing"
)

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		query  string
		expect bool
	}{
		{"substring", "aws_lambda_function.example", "lambda", true},
		{"skipped letter", "aws_lambda_function.example", "lmbda", true},
		{"prefix", "aws_lambda_function.example", "lam", true},
		{"mid-address", "aws_instance.main", "inst", true},
		{"scattered letters", "aws_instance.main", "ai", true},
		{"module path", "module.foo.aws_s3_bucket.bar", "s3", true},
		{"across segments", "module.foo.aws_s3_bucket.bar", "s3b", true},
		{"data source", "data.aws_ami.ubuntu", "ami", true},
		{"indexed address", "aws_subnet.private[0]", "priv0", true},
		{"no match", "aws_instance.main", "xyz", false},
		{"transposed ok", "lambda", "lmbda", true},
		{"wrong tail", "lambda", "lmbdx", false},
		{"empty text", "", "a", false},
		{"empty query", "abc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fuzzyMatch(tt.text, tt.query); got != tt.expect {
				t.Errorf("fuzzyMatch(%q, %q) = %v, want %v", tt.text, tt.query, got, tt.expect)
			}
		})
	}
}
