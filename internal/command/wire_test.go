package command

import (
	"errors"
	"testing"
)

func TestWire_RoundTrip(t *testing.T) {
	tests := []struct {
		kind  Kind
		value float64
		want  string
	}{
		{KindDispenseFood, 12.5, "F12.5"},
		{KindDispenseFood, 100, "F100"},
		{KindDispenseWater, 250, "W250"},
		{KindDispenseWater, 0.5, "W0.5"},
		{KindSetTemperature, 22.5, "T22.5"},
		{KindSetTemperature, 18, "T18"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			payload, err := EncodeWire(tt.kind, tt.value)
			if err != nil {
				t.Fatalf("EncodeWire() error = %v", err)
			}
			if payload != tt.want {
				t.Errorf("EncodeWire() = %q, want %q", payload, tt.want)
			}

			kind, value, err := ParseWire(payload)
			if err != nil {
				t.Fatalf("ParseWire(%q) error = %v", payload, err)
			}
			if kind != tt.kind || value != tt.value {
				t.Errorf("ParseWire(%q) = (%q, %v), want (%q, %v)",
					payload, kind, value, tt.kind, tt.value)
			}
		})
	}
}

func TestEncodeWire_UnknownKind(t *testing.T) {
	if _, err := EncodeWire(Kind("reboot"), 1); !errors.Is(err, ErrValidation) {
		t.Errorf("EncodeWire(reboot) error = %v, want ErrValidation", err)
	}
}

func TestParseWire_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"letter only", "F"},
		{"unknown letter", "X10"},
		{"non-numeric value", "Fabc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseWire(tt.payload); !errors.Is(err, ErrBadWirePayload) {
				t.Errorf("ParseWire(%q) error = %v, want ErrBadWirePayload", tt.payload, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		value   float64
		wantErr bool
	}{
		{"food ok", KindDispenseFood, 50, false},
		{"food zero", KindDispenseFood, 0, true},
		{"water negative", KindDispenseWater, -5, true},
		{"setpoint ok", KindSetTemperature, 22.5, false},
		{"setpoint freezing", KindSetTemperature, -3, true},
		{"setpoint scalding", KindSetTemperature, 55, true},
		{"unknown kind", Kind("reboot"), 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.kind, tt.value)
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Errorf("validate() error = %v, want ErrValidation", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("validate() error = %v, want nil", err)
			}
		})
	}
}
