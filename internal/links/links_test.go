package links

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"roamexport/internal/apperr"
	"roamexport/internal/db"
	"roamexport/internal/index"
)

func testIndex() *index.Index {
	return index.Build([]db.Node{
		{ID: `"ABC123"`, File: `"/notes/my.org"`, Level: 0, Title: `"My Note"`},
		{ID: `"N2"`, File: `"/notes/a.org"`, Level: 1, Title: `"Beta"`},
		{ID: "5f0e-aa", File: "/notes/c.org", Level: 0, Title: "Either/Or"},
	})
}

func TestRewrite(t *testing.T) {
	idx := testIndex()
	tests := []struct {
		name  string
		in    string
		want  string
		count int
	}{
		{
			name:  "single link with space in title",
			in:    "[[id:ABC123][See this]]",
			want:  "[[./My%20Note.md][See this]]",
			count: 1,
		},
		{
			name:  "link inside prose",
			in:    "Before [[id:N2][go]] after.\n",
			want:  "Before [[./Beta.md][go]] after.\n",
			count: 1,
		},
		{
			name:  "multiple independent links",
			in:    "* H\n[[id:ABC123][one]] and [[id:N2][two]]\n[[id:ABC123][three]]",
			want:  "* H\n[[./My%20Note.md][one]] and [[./Beta.md][two]]\n[[./My%20Note.md][three]]",
			count: 3,
		},
		{
			name:  "adjacent links",
			in:    "[[id:N2][a]][[id:N2][b]]",
			want:  "[[./Beta.md][a]][[./Beta.md][b]]",
			count: 2,
		},
		{
			name:  "sanitized title with slash",
			in:    "[[id:5f0e-aa][choice]]",
			want:  "[[./Either%20over%20Or.md][choice]]",
			count: 1,
		},
		{
			name:  "display text keeps brackets-free content verbatim",
			in:    "[[id:N2][Beta (see also: x/y)]]",
			want:  "[[./Beta.md][Beta (see also: x/y)]]",
			count: 1,
		},
		{
			name: "no links",
			in:   "#+title: Plain\n\nNothing to see [[https://example.com][here]].",
			want: "#+title: Plain\n\nNothing to see [[https://example.com][here]].",
		},
		{
			name: "id link without display text is not a token",
			in:   "[[id:N2]]",
			want: "[[id:N2]]",
		},
		{
			name: "empty document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, count, err := Rewrite(tt.in, "/notes/src.org", idx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Rewrite() = %q, want %q", got, tt.want)
			}
			if count != tt.count {
				t.Errorf("count = %d, want %d", count, tt.count)
			}
		})
	}
}

func TestRewrite_Idempotent(t *testing.T) {
	idx := testIndex()
	in := "[[id:ABC123][See this]] then [[id:N2][go]]"

	once, _, err := Rewrite(in, "src.org", idx)
	if err != nil {
		t.Fatal(err)
	}
	twice, count, err := Rewrite(once, "src.org", idx)
	if err != nil {
		t.Fatal(err)
	}
	if twice != once {
		t.Errorf("second rewrite changed text:\n%q\n%q", once, twice)
	}
	if count != 0 {
		t.Errorf("second rewrite count = %d, want 0", count)
	}
}

func TestRewrite_Dangling(t *testing.T) {
	idx := testIndex()
	in := "[[id:N2][ok]] [[id:MISSING-1][broken]]"

	got, _, err := Rewrite(in, "/notes/src.org", idx)
	if err == nil {
		t.Fatalf("expected error, got text %q", got)
	}
	if !errors.Is(err, apperr.ErrDanglingLink) {
		t.Errorf("expected dangling link error, got: %v", err)
	}
	var linkErr *apperr.LinkResolutionError
	if !errors.As(err, &linkErr) {
		t.Fatalf("expected LinkResolutionError, got %T", err)
	}
	if linkErr.ID != "MISSING-1" || linkErr.SourceFile != "/notes/src.org" {
		t.Errorf("LinkResolutionError = %+v", linkErr)
	}
	if got != "" {
		t.Errorf("failed rewrite should not return partial text, got %q", got)
	}
}

func TestScan(t *testing.T) {
	text := "x [[id:AB-12][first]] y [[id:cd34][second one]]"
	want := []Token{
		{ID: "AB-12", Display: "first", Start: 2, End: 21},
		{ID: "cd34", Display: "second one", Start: 24, End: 47},
	}
	if diff := cmp.Diff(want, Scan(text)); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestDestination(t *testing.T) {
	if got := Destination("My Long Note"); got != "./My%20Long%20Note.md" {
		t.Errorf("Destination() = %q", got)
	}
	if got := Destination("Single"); got != "./Single.md" {
		t.Errorf("Destination() = %q", got)
	}
}

func TestDangling(t *testing.T) {
	idx := testIndex()
	got := Dangling("[[id:N2][a]] [[id:X1][b]] [[id:Y2][c]]", "src.org", idx)
	if len(got) != 2 || got[0].ID != "X1" || got[1].ID != "Y2" {
		t.Errorf("Dangling() = %+v", got)
	}
}
