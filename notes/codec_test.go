package notes

import (
	"reflect"
	"testing"
)

func TestDecodePlainNotes(t *testing.T) {
	desc, meta := Decode("Buy 2% milk")
	if desc != "Buy 2% milk" {
		t.Fatalf("unexpected description: %q", desc)
	}
	if !meta.Empty() {
		t.Fatalf("expected empty metadata, got %#v", meta)
	}
}

func TestDecodeEmptyNotes(t *testing.T) {
	desc, meta := Decode("")
	if desc != "" || !meta.Empty() {
		t.Fatalf("unexpected result: %q %#v", desc, meta)
	}
}

func TestDecodeMetadataOnly(t *testing.T) {
	desc, meta := Decode("\n\n---METADATA---\n{\"labels\":[\"errand\"]}")
	if desc != "" {
		t.Fatalf("expected empty description, got %q", desc)
	}
	if !reflect.DeepEqual(meta.Labels, []string{"errand"}) {
		t.Fatalf("unexpected labels: %#v", meta.Labels)
	}
}

func TestDecodeMalformedMetadataFallsBack(t *testing.T) {
	raw := "desc\n\n---METADATA---\n{not json"
	desc, meta := Decode(raw)
	if desc != raw {
		t.Fatalf("expected whole string as description, got %q", desc)
	}
	if !meta.Empty() {
		t.Fatalf("expected empty metadata, got %#v", meta)
	}
}

func TestEncodeWithoutMetadata(t *testing.T) {
	if got := Encode("just text", Metadata{}); got != "just text" {
		t.Fatalf("unexpected notes: %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		desc string
		meta Metadata
	}{
		{"labels and image", "Plan the week", Metadata{Labels: []string{"planning", "focus"}, Image: "https://example.com/a.png"}},
		{"labels only", "Collect tasks", Metadata{Labels: []string{"inbox"}}},
		{"image only", "", Metadata{Image: "https://example.com/b.png"}},
		{"empty description", "", Metadata{Labels: []string{"today"}}},
		{"multiline description", "line one\nline two", Metadata{Labels: []string{"x"}}},
		{"no metadata", "plain", Metadata{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			desc, meta := Decode(Encode(tc.desc, tc.meta))
			if desc != tc.desc {
				t.Fatalf("description mismatch: got %q want %q", desc, tc.desc)
			}
			if !reflect.DeepEqual(meta, tc.meta) {
				t.Fatalf("metadata mismatch: got %#v want %#v", meta, tc.meta)
			}
		})
	}
}
