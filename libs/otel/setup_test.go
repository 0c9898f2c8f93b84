package otelx

import "testing"

func TestGetenv(t *testing.T) {
	if got := getenv("OTELX_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("got %q, want fallback", got)
	}
	t.Setenv("OTELX_TEST_SET", "jaeger:4317")
	if got := getenv("OTELX_TEST_SET", "fallback"); got != "jaeger:4317" {
		t.Fatalf("got %q, want jaeger:4317", got)
	}
}
