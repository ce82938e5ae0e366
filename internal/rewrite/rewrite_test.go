package rewrite

import "testing"

func TestMappedNameCanonicalExamples(t *testing.T) {
	cases := map[string]string{
		"android/app/Activity":                            ShimRoot + "/activity/Activity",
		"androidx/recyclerview/widget/LinearLayoutManager": ShimRoot + "/widget/RecyclerView$LinearLayoutManager",
		"com/example/Foo":                                  "com/example/Foo",
	}
	for in, want := range cases {
		if got := MappedName(in); got != want {
			t.Errorf("MappedName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMappedNameLocality(t *testing.T) {
	names := []string{"com/example/Foo", "kotlin/Unit", "java/lang/Object"}
	for _, n := range names {
		if got := MappedName(n); got != n {
			t.Errorf("MappedName(%q) = %q, want unchanged", n, got)
		}
	}
}

func TestMappedNameIdempotent(t *testing.T) {
	names := []string{
		"android/app/Activity",
		"androidx/recyclerview/widget/LinearLayoutManager",
		"com/example/Foo",
	}
	for _, n := range names {
		once := MappedName(n)
		twice := MappedName(once)
		if once != twice {
			t.Errorf("MappedName not idempotent for %q: %q then %q", n, once, twice)
		}
	}
}
