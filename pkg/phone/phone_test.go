package phone

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"622 12 34 56":      "224622123456",
		"+224 622123456":    "224622123456",
		"00224622123456":    "224622123456",
		"+33 6 12 34 56 78": "33612345678",
	}
	for in, want := range cases {
		got, err := Normalize(in, "")
		if err != nil {
			t.Errorf("Normalize(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "12"} {
		if _, err := Normalize(in, ""); err == nil {
			t.Errorf("Normalize(%q) should fail", in)
		}
	}
}
