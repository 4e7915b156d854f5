package effects

import "testing"

func TestFlatten(t *testing.T) {
	create := FieldEffect{Operation: OpCreate, SchemaXML: "<Field></Field>"}
	link := FieldLinkEffect{Operation: OpAdd, ContentTypeID: "0x01", FieldID: "f"}

	got := Flatten(
		NoEffect{},
		CompositeEffect{Effects: []Effect{create, LogEffect{Message: "hi"}, CompositeEffect{Effects: []Effect{link}}}},
		nil,
	)

	if len(got) != 2 {
		t.Fatalf("expected 2 effects, got %d", len(got))
	}
	if got[0].EffectType() != "field" || got[1].EffectType() != "field_link" {
		t.Errorf("unexpected order: %s, %s", got[0].EffectType(), got[1].EffectType())
	}
}

func TestLogs(t *testing.T) {
	got := Logs(
		LogEffect{Level: "info", Message: "a"},
		CompositeEffect{Effects: []Effect{FieldEffect{}, LogEffect{Level: "warning", Message: "b"}}},
	)
	if len(got) != 2 || got[0].Message != "a" || got[1].Message != "b" {
		t.Errorf("unexpected logs: %+v", got)
	}
}

func TestEffectTypes(t *testing.T) {
	tests := []struct {
		effect Effect
		want   string
	}{
		{LogEffect{}, "log"},
		{FieldEffect{}, "field"},
		{ContentTypeEffect{}, "content_type"},
		{FieldLinkEffect{}, "field_link"},
		{CompositeEffect{}, "composite"},
		{NoEffect{}, "none"},
	}
	for _, tt := range tests {
		if got := tt.effect.EffectType(); got != tt.want {
			t.Errorf("EffectType() = %q, want %q", got, tt.want)
		}
	}
}
