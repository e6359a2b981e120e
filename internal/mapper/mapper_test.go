package mapper

import (
	"errors"
	"strings"
	"testing"

	"github.com/espresso-charts/studio/internal/week"
)

func headingParams() week.Params {
	return week.Params{
		"txt_suptitle": "Primary heading",
		"txt_subtitle": "Secondary heading",
	}
}

// Pins the inherited bar-renderer asymmetry: the config's primary heading
// must land on the bar renderer's txt_subtitle keyword, which is the
// opposite of every other chart type.
func TestBarHeadingMappingIsSwapped(t *testing.T) {
	mapped, err := MapChart(week.ChartBar, headingParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := mapped.String("txt_subtitle"); got != "Primary heading" {
		t.Fatalf("bar primary heading must map to txt_subtitle, got %q", got)
	}
	if got, _ := mapped.String("txt_suptitle"); got != "Secondary heading" {
		t.Fatalf("bar secondary heading must map to txt_suptitle, got %q", got)
	}
}

func TestNonBarHeadingMappingIsIdentity(t *testing.T) {
	for _, typ := range []week.ChartType{week.ChartLine, week.ChartStem, week.ChartDonut} {
		mapped, err := MapChart(typ, headingParams())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", typ, err)
		}
		if got, _ := mapped.String("txt_suptitle"); got != "Primary heading" {
			t.Fatalf("%s: primary heading must stay on txt_suptitle, got %q", typ, got)
		}
		if got, _ := mapped.String("txt_subtitle"); got != "Secondary heading" {
			t.Fatalf("%s: secondary heading must stay on txt_subtitle, got %q", typ, got)
		}
	}
}

func TestBarHeadingPositionKeyDiffers(t *testing.T) {
	mapped, err := MapChart(week.ChartBar, week.Params{"suptitle_y": 0.9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := mapped["suptitle_y"]; present {
		t.Fatalf("bar mapping must not emit suptitle_y")
	}
	if got, _ := mapped.Float("suptitle_y_custom"); got != 0.9 {
		t.Fatalf("bar heading position must map to suptitle_y_custom, got %v", got)
	}
	if HeadingPositionKey(week.ChartBar) != "suptitle_y_custom" {
		t.Fatalf("bar heading position key mismatch")
	}
	if HeadingPositionKey(week.ChartLine) != "suptitle_y" {
		t.Fatalf("line heading position key mismatch")
	}
}

func TestUnmappedKeysPassThrough(t *testing.T) {
	mapped, err := MapChart(week.ChartDonut, week.Params{"center_text": "42%", "wedge_width": 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := mapped.String("center_text"); got != "42%" {
		t.Fatalf("unmapped key must pass through, got %q", got)
	}
}

func TestAnimationReusesStaticTable(t *testing.T) {
	mapped, err := MapAnimation(week.AnimateBar, headingParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := mapped.String("txt_subtitle"); got != "Primary heading" {
		t.Fatalf("bar animation must reuse the bar swap table, got %q", got)
	}
	static, err := MapChart(week.ChartBar, headingParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for key, value := range static {
		if mapped[key] != value {
			t.Fatalf("animated bar table diverged from static table at %q", key)
		}
	}
}

func TestUnknownChartTypeFails(t *testing.T) {
	_, err := MapChart(week.ChartType("scatter"), headingParams())
	var unsupported *UnsupportedChartType
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedChartType, got %T: %v", err, err)
	}
	if unsupported.Tag != "scatter" {
		t.Fatalf("error must carry the unsupported tag, got %q", unsupported.Tag)
	}
	if !strings.Contains(err.Error(), "scatter") {
		t.Fatalf("error text must name the tag: %v", err)
	}
}
