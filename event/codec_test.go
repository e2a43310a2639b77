package event

import (
	"errors"
	"testing"
)

func TestMarshalWireFormat(t *testing.T) {
	tests := []struct {
		ev   WindowEvent
		want string
	}{
		{Resized{Width: 80, Height: 24}, `{"type":"resized","width":80,"height":24}`},
		{CursorMoved{X: 3, Y: 7.5}, `{"type":"cursor_moved","x":3,"y":7.5}`},
		{MouseInput{Button: ButtonLeft, State: Released}, `{"type":"mouse_input","button":"left","state":"released"}`},
		{KeyboardInput{Text: Interrupt}, `{"type":"keyboard_input","text":"\u0003"}`},
		{RedrawRequested{}, `{"type":"redraw_requested"}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.ev.Kind()), func(t *testing.T) {
			got, err := Marshal(tt.ev)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}

			back, err := Unmarshal(got)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if back != tt.ev {
				t.Errorf("round trip = %#v, want %#v", back, tt.ev)
			}
		})
	}
}

func TestMarshalRejectsInvalid(t *testing.T) {
	if _, err := Marshal(Resized{Width: -4}); !errors.Is(err, ErrSchemaViolation) {
		t.Errorf("expected ErrSchemaViolation, got %v", err)
	}
	if _, err := Marshal(nil); !errors.Is(err, ErrSchemaViolation) {
		t.Errorf("expected ErrSchemaViolation for nil, got %v", err)
	}
}

func TestUnmarshalViolations(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{"type":`},
		{"array", `[1,2]`},
		{"no tag", `{"width":1,"height":2}`},
		{"numeric tag", `{"type":7}`},
		{"unknown tag", `{"type":"scrolled"}`},
		{"missing height", `{"type":"resized","width":10}`},
		{"string width", `{"type":"resized","width":"10","height":2}`},
		{"fractional width", `{"type":"resized","width":1.5,"height":2}`},
		{"negative size", `{"type":"resized","width":-1,"height":2}`},
		{"cursor missing y", `{"type":"cursor_moved","x":1}`},
		{"right button", `{"type":"mouse_input","button":"right","state":"pressed"}`},
		{"held state", `{"type":"mouse_input","button":"left","state":"held"}`},
		{"empty text", `{"type":"keyboard_input","text":""}`},
		{"text number", `{"type":"keyboard_input","text":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Unmarshal([]byte(tt.in))
			if !errors.Is(err, ErrSchemaViolation) {
				t.Errorf("expected ErrSchemaViolation, got %v (event %#v)", err, ev)
			}
			if ev != nil {
				t.Errorf("violation returned event %#v", ev)
			}
		})
	}
}

func TestUnmarshalIgnoresExtraFields(t *testing.T) {
	ev, err := Unmarshal([]byte(`{"t":120,"type":"cursor_moved","x":2,"y":1,"note":"x"}`))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if ev != (CursorMoved{X: 2, Y: 1}) {
		t.Errorf("got %#v", ev)
	}
}
