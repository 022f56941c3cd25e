package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCode(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{"default length", 0, DefaultLength},
		{"negative length", -3, DefaultLength},
		{"four", 4, 4},
		{"five", 5, 5},
		{"long", 32, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := GenerateCode(tt.length)
			assert.Len(t, code, tt.want)
			for _, r := range code {
				assert.True(t, strings.ContainsRune(charset, r), "unexpected rune %q", r)
			}
		})
	}
}

func TestGenerateCodeVaries(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		seen[GenerateCode(8)] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}

func TestCharset(t *testing.T) {
	assert.Len(t, charset, 62)
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com", true},
		{"http://example.com/path?q=1#frag", true},
		{"ftp://files.example.org/a.txt", true},
		{"https://localhost:8080", true},
		{"example.com", false},
		{"/relative/path", false},
		{"https://", false},
		{"", false},
		{"http://[::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidURL(tt.in))
		})
	}
}

func TestEnsureScheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"  example.com/a ", "https://example.com/a"},
		{"http://example.com", "http://example.com"},
		{"https://example.com", "https://example.com"},
		{"ftp://example.com", "ftp://example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EnsureScheme(tt.in))
		})
	}
}

func TestIsValidCustomCode(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"abc", true},
		{"my-link_2024", true},
		{"A", true},
		{"", false},
		{"has space", false},
		{"slash/code", false},
		{"émoji", false},
		{"dot.code", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCustomCode(tt.in))
		})
	}
}

func TestIsValidDomain(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"example.com", true},
		{"sub.example.co.uk", true},
		{"my-site.io", true},
		{"localhost", false},
		{"-bad.com", false},
		{"bad-.com", false},
		{"example.c0m", false},
		{"example.c", false},
		{strings.Repeat("a", 63) + ".com", true},
		{strings.Repeat("a", 64) + ".com", false},
		{"https://example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidDomain(tt.in))
		})
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"example.com", "https://example.com", true},
		{" example.com/ ", "https://example.com", true},
		{"https://go.example.com", "https://go.example.com", true},
		{"HTTP://example.com", "http://example.com", true},
		{"not a domain", "", false},
		{"https://", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeDomain(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
