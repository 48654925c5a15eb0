package badge

import (
	"encoding/xml"
	"strings"
	"testing"
)

func TestStatus_UpAndDown(t *testing.T) {
	up := string(Status("api", true))
	if !strings.Contains(up, `fill="green"`) || !strings.Contains(up, ">up</text>") {
		t.Fatalf("up badge wrong: %s", up)
	}
	down := string(Status("api", false))
	if !strings.Contains(down, `fill="red"`) || !strings.Contains(down, ">down</text>") {
		t.Fatalf("down badge wrong: %s", down)
	}
}

func TestRender_Geometry(t *testing.T) {
	// "api" = 3*7+10 = 31, "up" = 2*7+10 = 24
	svg := string(Render("api", "up", ColorUp))
	for _, want := range []string{
		`width="55" height="20"`,
		`<path fill="#555" d="M0 0h31v20H0z"/>`,
		`<path fill="green" d="M31 0h24v20H31z"/>`,
		`<text x="15.5" y="14">api</text>`,
		`<text x="43" y="14">up</text>`,
	} {
		if !strings.Contains(svg, want) {
			t.Fatalf("missing %q in %s", want, svg)
		}
	}
}

func TestRender_EscapesAndIsWellFormed(t *testing.T) {
	svg := Render(`<script>&"x"`, "down", ColorDown)
	if strings.Contains(string(svg), "<script>") {
		t.Fatalf("label not escaped: %s", svg)
	}
	var doc struct{ XMLName xml.Name }
	if err := xml.Unmarshal(svg, &doc); err != nil {
		t.Fatalf("badge is not well-formed XML: %v", err)
	}
	if doc.XMLName.Local != "svg" {
		t.Fatalf("root element = %q", doc.XMLName.Local)
	}
}

func TestRender_Deterministic(t *testing.T) {
	a, b := Render("shop", "up", ColorUp), Render("shop", "up", ColorUp)
	if string(a) != string(b) {
		t.Fatal("Render must be pure")
	}
}
