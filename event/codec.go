package event

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Wire format, one JSON object per event:
//
//	{"type":"resized","width":80,"height":24}
//	{"type":"cursor_moved","x":3,"y":7}
//	{"type":"mouse_input","button":"left","state":"pressed"}
//	{"type":"keyboard_input","text":"\u0003"}
//	{"type":"redraw_requested"}

type field struct {
	path  string
	value any
}

// Marshal encodes a valid event as a JSON object
func Marshal(ev WindowEvent) ([]byte, error) {
	return appendEvent([]byte(`{}`), ev)
}

// appendEvent sets the event fields on an existing JSON object
func appendEvent(obj []byte, ev WindowEvent) ([]byte, error) {
	if err := Validate(ev); err != nil {
		return nil, err
	}

	fields := []field{{"type", string(ev.Kind())}}
	switch e := ev.(type) {
	case Resized:
		fields = append(fields, field{"width", e.Width}, field{"height", e.Height})
	case CursorMoved:
		fields = append(fields, field{"x", e.X}, field{"y", e.Y})
	case MouseInput:
		fields = append(fields, field{"button", e.Button.String()}, field{"state", e.State.String()})
	case KeyboardInput:
		fields = append(fields, field{"text", e.Text})
	case RedrawRequested:
	default:
		return nil, violation("unknown variant %T", ev)
	}

	var err error
	for _, f := range fields {
		if obj, err = sjson.SetBytes(obj, f.path, f.value); err != nil {
			return nil, fmt.Errorf("encode %s.%s: %w", ev.Kind(), f.path, err)
		}
	}
	return obj, nil
}

// Unmarshal decodes one JSON object. Unknown tags, missing or mistyped
// payload fields and invalid payload values return ErrSchemaViolation.
func Unmarshal(data []byte) (WindowEvent, error) {
	if !gjson.ValidBytes(data) {
		return nil, violation("malformed JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, violation("record is not an object")
	}

	tag := root.Get("type")
	if tag.Type != gjson.String {
		return nil, violation("missing type tag")
	}

	var ev WindowEvent
	switch Kind(tag.Str) {
	case KindResized:
		w, err := intField(root, "width")
		if err != nil {
			return nil, err
		}
		h, err := intField(root, "height")
		if err != nil {
			return nil, err
		}
		ev = Resized{Width: w, Height: h}
	case KindCursorMoved:
		x, err := numField(root, "x")
		if err != nil {
			return nil, err
		}
		y, err := numField(root, "y")
		if err != nil {
			return nil, err
		}
		ev = CursorMoved{X: x, Y: y}
	case KindMouseInput:
		b, err := strField(root, "button")
		if err != nil {
			return nil, err
		}
		s, err := strField(root, "state")
		if err != nil {
			return nil, err
		}
		mi := MouseInput{}
		if b == ButtonLeft.String() {
			mi.Button = ButtonLeft
		}
		switch s {
		case Pressed.String():
			mi.State = Pressed
		case Released.String():
			mi.State = Released
		}
		ev = mi
	case KindKeyboardInput:
		text, err := strField(root, "text")
		if err != nil {
			return nil, err
		}
		ev = KeyboardInput{Text: text}
	case KindRedrawRequested:
		ev = RedrawRequested{}
	default:
		return nil, violation("unknown type %q", tag.Str)
	}

	if err := Validate(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func numField(root gjson.Result, path string) (float64, error) {
	r := root.Get(path)
	if r.Type != gjson.Number {
		return 0, violation("%s: expected number", path)
	}
	return r.Num, nil
}

func intField(root gjson.Result, path string) (int, error) {
	n, err := numField(root, path)
	if err != nil {
		return 0, err
	}
	i := root.Get(path).Int()
	if float64(i) != n {
		return 0, violation("%s: expected integer, got %v", path, n)
	}
	return int(i), nil
}

func strField(root gjson.Result, path string) (string, error) {
	r := root.Get(path)
	if r.Type != gjson.String {
		return "", violation("%s: expected string", path)
	}
	return r.Str, nil
}
