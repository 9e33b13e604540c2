package extract

import (
	"strings"
	"testing"
)

func TestCleanTextRemovesAdBoilerplate(t *testing.T) {
	subs := DefaultSubstitutions()
	text := "First paragraph of the story.\n\nAdvertisement\n\nHow relevant is this ad to you?\nVery\nSomewhat\nNot at all\nOther\n\nSecond paragraph continues here."

	got := CleanText(text, subs)

	if strings.Contains(got, "Advertisement") {
		t.Errorf("ad marker survived: %q", got)
	}
	if strings.Contains(got, "relevant is this ad") {
		t.Errorf("ad survey survived: %q", got)
	}
	if !strings.Contains(got, "First paragraph of the story.") {
		t.Errorf("story text lost: %q", got)
	}
	if !strings.Contains(got, "Second paragraph continues here.") {
		t.Errorf("story text lost: %q", got)
	}
}

func TestCleanTextRemovesSlowVideoSurvey(t *testing.T) {
	text := "Intro line.\n\nVideo player was slow to load content\nVideo content never loaded\nAd froze or did not finish loading\nOther\n\nOutro line."

	got := CleanText(text, DefaultSubstitutions())

	if strings.Contains(got, "Video player") {
		t.Errorf("video survey survived: %q", got)
	}
	if !strings.Contains(got, "Intro line.") || !strings.Contains(got, "Outro line.") {
		t.Errorf("surrounding text lost: %q", got)
	}
}

func TestCleanTextCollapsesBlankRuns(t *testing.T) {
	text := "one\n\n\n\ntwo\n   \n\t\nthree"

	got := CleanText(text, nil)

	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank run survived: %q", got)
	}
	if got != "one\n\ntwo\n\nthree" {
		t.Errorf("CleanText = %q", got)
	}
}

func TestCleanTextRemovalBeforeCollapse(t *testing.T) {
	// The gap left by a removed block must fold into a single break.
	text := "before\n\nAdvertisement\n\nafter"

	got := CleanText(text, DefaultSubstitutions())

	if got != "before\n\nafter" {
		t.Errorf("CleanText = %q", got)
	}
}

func TestCleanTextIdempotent(t *testing.T) {
	subs := DefaultSubstitutions()
	inputs := []string{
		"  padded  \n\n\nAdvertisement\ntext body\n\n",
		"plain single line",
		"",
		"How relevant is this ad to you?\nOther",
	}
	for _, in := range inputs {
		once := CleanText(in, subs)
		twice := CleanText(once, subs)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestCleanTextTrims(t *testing.T) {
	if got := CleanText("\n\n  body  \n\n", nil); got != "body" {
		t.Errorf("CleanText = %q", got)
	}
}
