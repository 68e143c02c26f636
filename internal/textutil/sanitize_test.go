package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"Product2/Widget":          "Product2_Widget",
		"  VlocityUITemplate/a b ": "VlocityUITemplate_a-b",
		"Matrix:v2*?":              "Matrix-v2-",
		"../escape":                "_escape",
		"":                         "",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
