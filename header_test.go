package nlconn

import "testing"

func TestAlign4(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"zero", 0, 0},
		{"already aligned", 16, 16},
		{"one over", 17, 20},
		{"three over", 19, 20},
		{"one under", 15, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := align4(tt.n); got != tt.want {
				t.Errorf("align4(%d) = %d, want %d", tt.n, got, tt.want)
			}
		})
	}
}

func TestTotalSize(t *testing.T) {
	tests := []struct {
		name    string
		payload int
		want    int
	}{
		{"empty payload", 0, headerLen},
		{"4-byte payload", 4, headerLen + 4},
		{"odd payload needs padding", 3, headerLen + 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := totalSize(tt.payload); got != tt.want {
				t.Errorf("totalSize(%d) = %d, want %d", tt.payload, got, tt.want)
			}
		})
	}
}

func TestHeaderFlagsString(t *testing.T) {
	tests := []struct {
		name string
		f    HeaderFlags
		want string
	}{
		{"none", 0, "0"},
		{"request", Request, "request"},
		{"request and multi", Request | Multi, "request|multi"},
		{"unknown bit", HeaderFlags(0x1000), "0x1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeaderTypeString(t *testing.T) {
	tests := []struct {
		name string
		typ  HeaderType
		want string
	}{
		{"noop", Noop, "noop"},
		{"error", ErrorType, "error"},
		{"done", Done, "done"},
		{"overrun", Overrun, "overrun"},
		{"family type", MinType, "type(16)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPutGetHeaderRoundTrip(t *testing.T) {
	h := Header{Length: 32, Type: MinType, Flags: Request | AckRequest, Sequence: 7, PortID: 1234}
	buf := make([]byte, headerLen)
	putHeader(buf, h)

	got := getHeader(buf)
	if got != h {
		t.Errorf("getHeader(putHeader(h)) = %+v, want %+v", got, h)
	}
}
